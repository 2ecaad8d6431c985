package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"shop-assistant/internal/app/models"
	"shop-assistant/internal/app/repositories"
	"shop-assistant/pkg/util"
)

var (
	ErrNotReadOnly = errors.New("only single SELECT or WITH statements can be executed")
	ErrNoStatement = errors.New("message has no sql statement")
)

const queryCacheTTL = 10 * time.Minute

// WarehouseService serves reference data and runs analyst generated SQL.
type WarehouseService struct {
	repo  *repositories.WarehouseRepository
	cache *redis.Client
	group singleflight.Group
}

// NewWarehouseService caches query results when cache is not nil.
func NewWarehouseService(repo *repositories.WarehouseRepository, cache *redis.Client) *WarehouseService {
	return &WarehouseService{repo: repo, cache: cache}
}

func (w *WarehouseService) ListTransactions(ctx context.Context, product string, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return w.repo.ListTransactions(ctx, product, limit, offset)
}

func (w *WarehouseService) Image(ctx context.Context, description string) (*models.WebsiteImage, error) {
	return w.repo.GetImage(ctx, strings.ToUpper(description))
}

// CredentialSource returns the key from configKey, falling back to the named
// API_CREDENTIALS row.
func (w *WarehouseService) CredentialSource(configKey, name string) CredentialSource {
	return func(ctx context.Context) (string, error) {
		if configKey != "" {
			return configKey, nil
		}
		cred, err := w.repo.GetCredential(ctx, name)
		if err != nil {
			return "", fmt.Errorf("credential %s: %w", name, err)
		}
		return cred.APIKey, nil
	}
}

// RunQuery executes a read-only statement. Identical concurrent statements
// share one database round trip.
func (w *WarehouseService) RunQuery(ctx context.Context, statement string) (*models.QueryResult, error) {
	statement = strings.TrimSpace(statement)
	if !IsReadOnly(statement) {
		return nil, ErrNotReadOnly
	}
	key := "shop:query:" + util.BytesMD5([]byte(statement))

	if w.cache != nil {
		if data, err := w.cache.Get(ctx, key).Bytes(); err == nil {
			result := &models.QueryResult{}
			if err := json.Unmarshal(data, result); err == nil {
				result.Cached = true
				return result, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Warnf("query cache read: %v", err)
		}
	}

	v, err, _ := w.group.Do(key, func() (interface{}, error) {
		rows, err := w.repo.Query(ctx, statement)
		if err != nil {
			return nil, fmt.Errorf("run query: %w", err)
		}
		result := &models.QueryResult{Statement: statement, Rows: rows}
		if w.cache != nil {
			if err := w.cache.Set(ctx, key, util.GetJson(result), queryCacheTTL).Err(); err != nil {
				log.Warnf("query cache write: %v", err)
			}
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	result := *v.(*models.QueryResult)
	return &result, nil
}

// IsReadOnly accepts a single SELECT or WITH statement that neither writes
// rows nor exports them (SELECT ... INTO).
func IsReadOnly(statement string) bool {
	s := strings.TrimSpace(stripSQLComments(statement))
	s = strings.TrimSuffix(s, ";")
	if s == "" || strings.Contains(s, ";") {
		return false
	}
	fields := strings.Fields(s)
	first := strings.ToUpper(fields[0])
	if first != "SELECT" && first != "WITH" {
		return false
	}
	for _, f := range fields {
		switch strings.ToUpper(strings.Trim(f, "(),")) {
		case "INSERT", "UPDATE", "DELETE", "MERGE", "DROP", "ALTER", "CREATE", "TRUNCATE", "GRANT", "REVOKE",
			"INTO", "CALL", "SET", "LOAD", "REPLACE", "LOCK", "RENAME", "COPY", "PUT":
			return false
		}
	}
	return true
}

func stripSQLComments(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if i := strings.Index(line, "--"); i >= 0 {
			line = line[:i]
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
