package pipeline

import (
	"context"
	"strings"

	"github.com/okian/scout/internal/adapters/warehouse"
	"github.com/okian/scout/pkg/logger"
)

// Duplicate keys pass through the dimension and fact stages unchanged. The
// audit counts them so a build can surface suspect source data without
// guessing which row should win.
var auditKeys = []struct {
	table string
	key   []string
}{
	{warehouse.TableDimPlayer, []string{"player_id"}},
	{warehouse.TableDimClub, []string{"club_id"}},
	{warehouse.TableDimCompetition, []string{"competition_id"}},
	{warehouse.TableFactMarketValue, []string{"player_id", "date"}},
	{warehouse.TableFactAppearances, []string{"appearance_id"}},
}

// KeyAudit is the duplicate count for one table key.
type KeyAudit struct {
	Table      string
	Key        []string
	Duplicates int64
}

// Audit holds the findings of the audit stage.
type Audit struct {
	Keys []KeyAudit
}

// Findings is the number of duplicated key values across all tables.
func (a Audit) Findings() int64 {
	var n int64
	for _, k := range a.Keys {
		n += k.Duplicates
	}
	return n
}

// Clean reports whether no duplicates were found.
func (a Audit) Clean() bool { return a.Findings() == 0 }

func runAudit(ctx context.Context, s *warehouse.Session) (Audit, error) {
	var a Audit
	for _, k := range auditKeys {
		n, err := s.DuplicateKeys(ctx, k.table, k.key...)
		if err != nil {
			return a, err
		}
		a.Keys = append(a.Keys, KeyAudit{Table: k.table, Key: k.key, Duplicates: n})
	}
	return a, nil
}

func (a Audit) warn(ctx context.Context, log logger.Logger) {
	for _, k := range a.Keys {
		if k.Duplicates == 0 {
			continue
		}
		log.Warn(ctx, "duplicate keys passed through",
			logger.String("table", k.Table),
			logger.String("key", strings.Join(k.Key, ",")),
			logger.Int64("duplicates", k.Duplicates),
		)
	}
}
