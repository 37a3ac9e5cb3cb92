package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"github.com/sparkstone/spark-bot/internal/domain"
)

const addressNotSet = "Not set"

// ExportWalletsCSV renders every account's wallet slots as one CSV row per
// user. The column layout repeats a fixed group per wallet slot up to the
// widest account seen, so rows stay rectangular; absent slots are padded
// with "Not set" addresses and zero counts.
func (s *Service) ExportWalletsCSV() ([]byte, error) {
	users := s.store.AllUsers()

	ids := make([]string, 0, len(users))
	maxSlots := 1
	for id, u := range users {
		ids = append(ids, id)
		if n := len(u.Wallets); n > maxSlots {
			maxSlots = n
		}
	}
	sort.Strings(ids)

	items := domain.KnownItems()

	header := []string{"userId", "username", "points", "activeWallet"}
	for slot := 1; slot <= maxSlots; slot++ {
		header = append(header,
			fmt.Sprintf("wallet%d_sparkAddress", slot),
			fmt.Sprintf("wallet%d_taprootAddress", slot),
		)
		for _, item := range items {
			header = append(header, fmt.Sprintf("wallet%d_%s", slot, item))
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, id := range ids {
		u := users[id]
		row := []string{
			u.UserID,
			u.Username,
			strconv.FormatInt(u.Points, 10),
			strconv.Itoa(u.ActiveWallet),
		}
		for slot := 1; slot <= maxSlots; slot++ {
			wallet := u.Wallet(slot)
			if wallet == nil {
				row = append(row, addressNotSet, addressNotSet)
				for range items {
					row = append(row, "0")
				}
				continue
			}
			row = append(row,
				orNotSet(wallet.SparkWalletAddress),
				orNotSet(wallet.TaprootWalletAddress),
			)
			for _, item := range items {
				row = append(row, strconv.FormatInt(wallet.Inventory.Count(item), 10))
			}
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func orNotSet(addr string) string {
	if addr == "" {
		return addressNotSet
	}
	return addr
}
