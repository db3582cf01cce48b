// Package bootstrap loads the shop's reference dataset into the ledger and
// provisions the login principals. It runs once at startup, before any
// purchase traffic; the loader is not re-entrant mid-traffic.
package bootstrap

import (
	"context"
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tonermart/backend/internal/access"
	"github.com/tonermart/backend/internal/ledger"
	"github.com/tonermart/backend/internal/models"
	"github.com/tonermart/backend/internal/services"
)

//go:embed data/*.tsv
var seedFS embed.FS

// Loader pushes the embedded seed through the ledger's bulk-ingestion
// calls and registers principals with the auth service.
type Loader struct {
	ledger ledger.Ledger
	auth   *services.AuthService
	log    *zap.Logger
}

// NewLoader builds a loader for the given ledger and auth service.
func NewLoader(l ledger.Ledger, auth *services.AuthService, log *zap.Logger) *Loader {
	return &Loader{ledger: l, auth: auth, log: log}
}

// Load ingests customers, articles and the historical purchases, then
// provisions one customer-role principal per customer plus the admin and
// the role-less principal paul. Seed passwords equal the principal name,
// as in the reference dataset; production deployments rotate them after
// provisioning.
func (l *Loader) Load(ctx context.Context) error {
	customers, err := readCustomers()
	if err != nil {
		return fmt.Errorf("seed customers: %w", err)
	}
	articles, err := readArticles()
	if err != nil {
		return fmt.Errorf("seed articles: %w", err)
	}
	purchases, err := readPurchases()
	if err != nil {
		return fmt.Errorf("seed purchases: %w", err)
	}

	if err := l.ledger.LoadCustomers(ctx, customers); err != nil {
		return fmt.Errorf("load customers: %w", err)
	}
	if err := l.ledger.LoadArticles(ctx, articles); err != nil {
		return fmt.Errorf("load articles: %w", err)
	}
	if err := l.ledger.LoadPurchases(ctx, purchases); err != nil {
		return fmt.Errorf("load purchases: %w", err)
	}

	for _, c := range customers {
		if err := l.auth.RegisterPrincipal(c.Name, c.Name, access.RoleCustomer); err != nil {
			return fmt.Errorf("register principal %s: %w", c.Name, err)
		}
	}
	if err := l.auth.RegisterPrincipal("admin", "admin", access.RoleAdmin); err != nil {
		return err
	}
	if err := l.auth.RegisterPrincipal("paul", "paul", access.RoleNone); err != nil {
		return err
	}

	l.log.Info("seed loaded",
		zap.Int("customers", len(customers)),
		zap.Int("articles", len(articles)),
		zap.Int("purchases", len(purchases)),
	)
	return nil
}

func openSeed(name string) (io.ReadCloser, error) {
	return seedFS.Open("data/" + name)
}

func newTSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	return cr
}

func readCustomers() ([]models.Customer, error) {
	f, err := openSeed("customer.tsv")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var customers []models.Customer
	cr := newTSVReader(f)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) != 2 {
			return nil, fmt.Errorf("customer row has %d fields", len(record))
		}
		balance, err := strconv.ParseInt(record[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("customer %s balance: %w", record[0], err)
		}
		customers = append(customers, models.Customer{Name: record[0], Balance: balance})
	}
	return customers, nil
}

func readArticles() ([]models.Article, error) {
	f, err := openSeed("article.tsv")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var articles []models.Article
	cr := newTSVReader(f)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) != 2 {
			return nil, fmt.Errorf("article row has %d fields", len(record))
		}
		price, err := strconv.ParseInt(record[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("article %s price: %w", record[0], err)
		}
		if price <= 0 {
			return nil, fmt.Errorf("article %s has non-positive price %d", record[0], price)
		}
		articles = append(articles, models.Article{Name: record[0], Price: price})
	}
	return articles, nil
}

func readPurchases() ([]models.Purchase, error) {
	f, err := openSeed("purchase.tsv")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var purchases []models.Purchase
	cr := newTSVReader(f)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) != 7 {
			return nil, fmt.Errorf("purchase row has %d fields", len(record))
		}
		id, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("purchase id: %w", err)
		}
		quantity, err := strconv.ParseInt(record[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("purchase %d quantity: %w", id, err)
		}
		price, err := strconv.ParseInt(record[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("purchase %d price: %w", id, err)
		}
		purchasedAt, err := time.Parse("2006-01-02", record[5])
		if err != nil {
			return nil, fmt.Errorf("purchase %d date: %w", id, err)
		}
		purchases = append(purchases, models.Purchase{
			ID:          id,
			Customer:    record[1],
			Article:     record[2],
			Quantity:    quantity,
			Price:       price,
			PurchasedAt: purchasedAt,
			Cancelled:   record[6] == "t",
		})
	}
	return purchases, nil
}
