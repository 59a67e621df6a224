package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"mrz-labeler/src/pkg/archive"
	"mrz-labeler/src/pkg/batch"
	"mrz-labeler/src/pkg/notify"
	"mrz-labeler/src/pkg/pipeline"
)

/*
export builds the report of a batch, zips its quarantine folder and
streams the archive back. The batch directory is removed only after the
whole archive was written to the client; a broken download leaves it for
another attempt or for the janitor.
*/
func (s *Server) export(c echo.Context) error {
	ws, err := batch.Open(s.DataRoot, c.Param("batch"))
	if err != nil {
		return respondError(c, err)
	}

	if !s.lockExport(ws.ID) {
		return c.JSON(http.StatusConflict, errorBody{Error: "export already running for batch " + ws.ID, Kind: kindConflict})
	}
	defer s.unlockExport(ws.ID)

	ctx := s.context()
	result, e := s.Builder.Build(ctx, ws)
	if e != nil {
		return respondStorageFault(c, e)
	}

	entries, e := archive.Zip(ws.QuarantineDir(), ws.ArchivePath())
	if e != nil {
		return respondStorageFault(c, e)
	}

	notify.NotifyBatch(ctx, s.Notify, loadSummary(ws), result)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "application/zip")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", batch.ArchiveFileName))
	if info, statErr := os.Stat(ws.ArchivePath()); statErr == nil {
		res.Header().Set(echo.HeaderContentLength, strconv.FormatInt(info.Size(), 10))
	}
	res.WriteHeader(http.StatusOK)

	delivery := archive.Delivery{
		Path: ws.ArchivePath(),
		OnDelivered: func() {
			if removeErr := ws.Remove(); removeErr != nil {
				tl.Log(tl.Error, palette.Red, "Could not remove delivered batch '%s': '%s'", ws.ID, removeErr)
			}
		},
	}
	_, e = delivery.Stream(res)
	if e != nil {
		// headers are gone already; the client sees a truncated body
		tl.Log(tl.Warning, palette.Yellow, "Export of batch '%s' ('%d' entries) not delivered", ws.ID, entries)
		return nil
	}

	tl.Log(tl.Notice1, palette.GreenBold, "Exported batch '%s': '%d' rows, '%d' archive entries", ws.ID, result.Rows, entries)
	return nil
}

// loadSummary reads the summary saved at upload time. Batches labeled
// elsewhere have none; their notification only carries the report.
func loadSummary(ws batch.Workspace) pipeline.Summary {
	summary := pipeline.Summary{BatchID: ws.ID}

	data, err := os.ReadFile(ws.SummaryPath())
	if err != nil {
		tl.Log(tl.Debug, palette.PurpleDim, "No summary for batch '%s': '%s'", ws.ID, err)
		return summary
	}
	err = json.Unmarshal(data, &summary)
	if err != nil {
		tl.Log(tl.Warning, palette.Yellow, "Unreadable summary for batch '%s': '%s'", ws.ID, err)
		return pipeline.Summary{BatchID: ws.ID}
	}
	return summary
}
