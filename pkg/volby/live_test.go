package volby

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestLiveDistrict scrapes a real district listing. It only runs when
// VOLBYSCRAPE_LIVE is set.
func TestLiveDistrict(t *testing.T) {
	if testing.Short() || os.Getenv("VOLBYSCRAPE_LIVE") == "" {
		t.Skip("skipping live test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := Scrape(ctx, "https://www.volby.cz/pls/ps2017nss/ps32?xjazyk=CZ&xkraj=12&xnumnuts=7103")
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}

	t.Logf("Municipalities: %d", res.Table.Len())
	t.Logf("Parties: %d", len(res.Table.Columns))
	t.Logf("Stats: %v", res.Stats)

	if res.Kind != PageIndex {
		t.Errorf("expected index page, got %s", res.Kind)
	}
	if res.Table.Len() < 50 {
		t.Errorf("expected a full district, got %d municipalities", res.Table.Len())
	}
	for _, row := range res.Table.Rows {
		if row.Code == "" || row.Name == "" {
			t.Errorf("row without identity: %+v", row)
		}
	}
}
