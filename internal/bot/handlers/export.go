package handlers

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/sparkstone/spark-bot/internal/export"
)

const maxImportSize = 20 << 20 // Telegram bot API file download limit

// NewExportWalletsHandler returns a handler for /exportwallets. The CSV
// report is sent back as a document.
func NewExportWalletsHandler(exporter *export.Service, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		data, err := exporter.ExportWalletsCSV()
		if err != nil {
			return fmt.Errorf("export wallets: %w", err)
		}

		doc := &telebot.Document{
			File:     telebot.FromReader(bytes.NewReader(data)),
			FileName: fmt.Sprintf("wallets-%s.csv", time.Now().UTC().Format("2006-01-02")),
			MIME:     "text/csv",
		}
		return c.Send(doc)
	}
}

// NewExportDataHandler returns a handler for /exportdata, sending the full
// economy snapshot bundle.
func NewExportDataHandler(exporter *export.Service, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		data, err := exporter.ExportJSON()
		if err != nil {
			return fmt.Errorf("export data: %w", err)
		}

		doc := &telebot.Document{
			File:     telebot.FromReader(bytes.NewReader(data)),
			FileName: fmt.Sprintf("spark-data-%s.json", time.Now().UTC().Format("2006-01-02")),
			MIME:     "application/json",
		}
		return c.Send(doc)
	}
}

// NewImportDataHandler returns a handler for /importdata. The snapshot must
// be attached to the command message as a document; live data is backed up
// before anything is applied.
func NewImportDataHandler(exporter *export.Service, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		msg := c.Message()
		if msg == nil || msg.Document == nil {
			return c.Send("Attach the exported JSON bundle to the /importdata command.")
		}
		if msg.Document.FileSize > maxImportSize {
			return c.Send("That file is too large to import.")
		}

		rc, err := c.Bot().File(&msg.Document.File)
		if err != nil {
			return fmt.Errorf("download import bundle: %w", err)
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxImportSize))
		if err != nil {
			return fmt.Errorf("read import bundle: %w", err)
		}

		res, err := exporter.Import(data)
		if err != nil {
			return err
		}

		log.Info("data import applied",
			slog.String("admin_id", SenderID(c)),
			slog.Int("users", res.UsersImported),
			slog.String("backup", res.BackupPath),
		)
		return c.Send(fmt.Sprintf(
			"✅ Imported %d users (economy state replaced: %t).\nPre-import backup: %s",
			res.UsersImported,
			res.StateReplaced,
			res.BackupPath,
		))
	}
}
