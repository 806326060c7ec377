package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/xuri/excelize/v2"

	"github.com/jkemboi/maziwa-backend/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func writeXLSX(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, file *excelize.File, filename string) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := file.Write(w); err != nil && logg != nil {
		logg.Error(ctx, "stream xlsx", err)
	}
}
