// Package main fills a ledger database with a realistic demo dataset: users,
// accounts with logos, cards, categories, a few months of expenses and
// incomes, card reminders and an audit history.
//
// Usage:
//
//	go run ./cmd/seed
//	go run ./cmd/seed -months 12 -reset
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/ilker/ledger-server/internal/backup"
	"github.com/ilker/ledger-server/internal/config"
	"github.com/ilker/ledger-server/internal/logging"
	"github.com/ilker/ledger-server/internal/models"
	"github.com/ilker/ledger-server/internal/repository"
	"github.com/ilker/ledger-server/internal/snapshot"
)

var (
	dbPath   = flag.String("db", "", "ledger database path (defaults to database.sqlite_path)")
	months   = flag.Int("months", 6, "months of expenses and incomes to generate")
	reset    = flag.Bool("reset", false, "wipe the ledger before seeding")
	password = flag.String("password", "demo1234", "password for the seeded users")
)

// 1x1 PNG used as an account logo.
var pngLogo = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0xf8, 0xcf, 0xc0, 0xf0,
	0x1f, 0x00, 0x05, 0x00, 0x01, 0xff, 0x89, 0x99, 0x3d, 0x1d, 0x00, 0x00,
	0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: "console"})
	if *dbPath != "" {
		cfg.Database.SQLitePath = *dbPath
	}

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open ledger database")
	}
	ledger := repository.NewLedger(db)
	ctx := context.Background()

	counts, err := ledger.Counts(ctx)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to count ledger rows")
	}
	var existing int64
	for _, n := range counts {
		existing += n
	}

	if existing > 0 {
		if !*reset {
			logging.Fatal().Int64("rows", existing).Msg("ledger is not empty, pass -reset to wipe it first")
		}
		// Restoring an empty snapshot wipes every table in dependency order.
		empty := &snapshot.Snapshot{Metadata: snapshot.Metadata{
			GeneratedAt:     time.Now(),
			FormatVersion:   snapshot.FormatVersion,
			ProducerVersion: "seed",
		}}
		if _, err := backup.NewRestorer(ledger).Restore(ctx, empty); err != nil {
			logging.Fatal().Err(err).Msg("failed to wipe ledger")
		}
	}

	rng := rand.New(rand.NewSource(42))
	if err := ledger.Transaction(ctx, func(tx *repository.Ledger) error {
		return seed(ctx, tx, rng, *months)
	}); err != nil {
		logging.Fatal().Err(err).Msg("seeding failed")
	}

	counts, err = ledger.Counts(ctx)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to count ledger rows")
	}
	ev := logging.Info().Str("db", cfg.Database.SQLitePath)
	for name, n := range counts {
		ev = ev.Int64(name, n)
	}
	ev.Msg("ledger seeded")
}

func seed(ctx context.Context, l *repository.Ledger, rng *rand.Rand, months int) error {
	now := time.Now().UTC().Truncate(time.Second)

	// Users
	users := []*models.User{
		{Name: "Ana Souza", Email: "ana@example.com", Role: models.RoleAdmin, IsActive: true},
		{Name: "Bruno Lima", Email: "bruno@example.com", Role: models.RoleUser, IsActive: true},
	}
	for _, u := range users {
		if err := u.SetPassword(*password); err != nil {
			return err
		}
		if err := l.Users.Save(ctx, u); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
	}

	// Categories
	expenseCats := map[string]*models.Category{}
	for _, c := range []models.Category{
		{Name: "Moradia", Kind: models.CategoryExpense, Color: "#8e44ad", Icon: "home"},
		{Name: "Mercado", Kind: models.CategoryExpense, Color: "#27ae60", Icon: "cart"},
		{Name: "Transporte", Kind: models.CategoryExpense, Color: "#2980b9", Icon: "car"},
		{Name: "Lazer", Kind: models.CategoryExpense, Color: "#e67e22", Icon: "ticket"},
	} {
		if err := l.Categories.Save(ctx, &c); err != nil {
			return fmt.Errorf("save category: %w", err)
		}
		expenseCats[c.Name] = &c
	}
	salaryCat := &models.Category{Name: "Salário", Kind: models.CategoryIncome, Color: "#16a085", Icon: "briefcase"}
	freelaCat := &models.Category{Name: "Freelance", Kind: models.CategoryIncome, Color: "#1abc9c", Icon: "laptop"}
	for _, c := range []*models.Category{salaryCat, freelaCat} {
		if err := l.Categories.Save(ctx, c); err != nil {
			return fmt.Errorf("save category: %w", err)
		}
	}

	// Accounts and cards
	checking := &models.Account{Name: "Conta Corrente", Bank: "Banco do Brasil", AccountType: "checking", BalanceCents: 452000, Logo: pngLogo, LogoContentType: "image/png"}
	savings := &models.Account{Name: "Poupança", Bank: "Caixa", AccountType: "savings", BalanceCents: 1250000, Logo: pngLogo, LogoContentType: "image/png"}
	for _, a := range []*models.Account{checking, savings} {
		if err := l.Accounts.Save(ctx, a); err != nil {
			return fmt.Errorf("save account: %w", err)
		}
	}
	cards := []*models.Card{
		{Name: "Nubank", Brand: "mastercard", LastDigits: "4821", LimitCents: 800000, ClosingDay: 3, DueDay: 10},
		{Name: "Inter", Brand: "visa", LastDigits: "1177", LimitCents: 350000, ClosingDay: 20, DueDay: 27},
	}
	for _, c := range cards {
		if err := l.Cards.Save(ctx, c); err != nil {
			return fmt.Errorf("save card: %w", err)
		}
	}

	// Independent extras
	for i, text := range []string{
		"Do not save what is left after spending, but spend what is left after saving.",
		"Beware of little expenses; a small leak will sink a great ship.",
	} {
		if err := l.Thoughts.Save(ctx, &models.Thought{Text: text, Day: now.AddDate(0, 0, -i)}); err != nil {
			return fmt.Errorf("save thought: %w", err)
		}
	}
	if err := l.SpendingLimits.Save(ctx, &models.SpendingLimit{Description: "Lazer mensal", AmountCents: 60000, Month: int(now.Month()), Year: now.Year()}); err != nil {
		return fmt.Errorf("save spending limit: %w", err)
	}
	if err := l.Charts.Save(ctx, &models.Chart{Title: "Gastos por categoria", ChartType: "pie", Config: `{"groupBy":"category"}`}); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	finished := now.Add(-time.Hour + 3*time.Second)
	if err := l.TaskLogs.Save(ctx, &models.TaskLog{TaskName: "monthly-report", StartedAt: now.Add(-time.Hour), FinishedAt: &finished, Success: true, Output: "report sent"}); err != nil {
		return fmt.Errorf("save task log: %w", err)
	}

	// Monthly movements
	for m := months - 1; m >= 0; m-- {
		month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -m, 0)
		past := m > 0

		if err := l.Incomes.Save(ctx, &models.Income{
			Description: "Salário", AmountCents: 650000, ReceivedAt: month.AddDate(0, 0, 4),
			Recurring: true, AccountID: &checking.ID, CategoryID: &salaryCat.ID,
		}); err != nil {
			return fmt.Errorf("save income: %w", err)
		}
		if rng.Intn(2) == 0 {
			if err := l.Incomes.Save(ctx, &models.Income{
				Description: "Projeto freelance", AmountCents: int64(80000 + rng.Intn(120000)), ReceivedAt: month.AddDate(0, 0, 15+rng.Intn(10)),
				AccountID: &savings.ID, CategoryID: &freelaCat.ID,
			}); err != nil {
				return fmt.Errorf("save income: %w", err)
			}
		}

		rent := expense("Aluguel", 180000, month.AddDate(0, 0, 9), past)
		rent.AccountID, rent.CategoryID = &checking.ID, &expenseCats["Moradia"].ID
		rent.Attachment, rent.AttachmentName = []byte("%PDF-1.4 boleto "+month.Format("2006-01")), "boleto-"+month.Format("200601")+".pdf"
		if err := l.Expenses.Save(ctx, rent); err != nil {
			return fmt.Errorf("save expense: %w", err)
		}

		for i := 0; i < 3+rng.Intn(4); i++ {
			card := cards[rng.Intn(len(cards))]
			name := []string{"Mercado", "Transporte", "Lazer"}[rng.Intn(3)]
			e := expense(name, int64(2000+rng.Intn(40000)), month.AddDate(0, 0, 1+rng.Intn(27)), past)
			e.CardID, e.CategoryID = &card.ID, &expenseCats[name].ID
			if err := l.Expenses.Save(ctx, e); err != nil {
				return fmt.Errorf("save expense: %w", err)
			}
		}

		for _, card := range cards {
			if err := l.Notifications.Save(ctx, &models.Notification{
				Title:        "Fatura " + card.Name,
				Message:      fmt.Sprintf("A fatura do cartão final %s vence dia %d.", card.LastDigits, card.DueDay),
				Read:         past,
				ScheduledFor: month.AddDate(0, 0, card.DueDay-3),
				CardID:       &card.ID,
			}); err != nil {
				return fmt.Errorf("save notification: %w", err)
			}
		}
	}

	// A purchase split in installments
	for i := 1; i <= 3; i++ {
		e := expense("Notebook", 150000, now.AddDate(0, i-1, 0), false)
		e.Installment, e.TotalInstallments = i, 3
		e.CardID, e.CategoryID = &cards[0].ID, &expenseCats["Lazer"].ID
		if err := l.Expenses.Save(ctx, e); err != nil {
			return fmt.Errorf("save expense: %w", err)
		}
	}

	for _, u := range users {
		if err := l.History.Save(ctx, &models.HistoryEntry{
			Action: "login", EntityType: "user", EntityID: u.ID, Details: "seeded session",
			OccurredAt: now, UserID: &u.ID,
		}); err != nil {
			return fmt.Errorf("save history: %w", err)
		}
	}
	return nil
}

func expense(description string, cents int64, due time.Time, paid bool) *models.Expense {
	e := &models.Expense{Description: description, AmountCents: cents, DueDate: due, Paid: paid}
	if paid {
		at := due
		e.PaidAt = &at
	}
	return e
}
