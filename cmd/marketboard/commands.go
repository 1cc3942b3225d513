package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/marketboard/config"
	"github.com/alejandrodnm/marketboard/internal/adapters/notify"
	"github.com/alejandrodnm/marketboard/internal/domain"
	"github.com/alejandrodnm/marketboard/internal/ports"
)

var errUsage = errors.New("usage")

// env es lo que necesita cada comando; los tests lo arman sobre SQLite en memoria.
type env struct {
	items    ports.MarketItemStore
	history  ports.HistoryStore
	renderer ports.HistoryRenderer
	out      io.Writer
}

func run(ctx context.Context, cfg *config.Config, args []string) error {
	b, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer b.close()

	e := &env{
		items:    b.items,
		history:  newAccess(b, cfg.History),
		renderer: notify.NewConsole(0),
		out:      os.Stdout,
	}
	return e.dispatch(ctx, args)
}

func (e *env) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "retrieve":
		return e.retrieve(ctx, rest)
	case "many":
		return e.many(ctx, rest)
	case "create":
		return e.create(ctx, rest)
	case "append":
		return e.appendSales(ctx, rest)
	case "touch":
		return e.touch(ctx, rest)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func (e *env) retrieve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("retrieve", flag.ContinueOnError)
	var world, item idFlag
	fs.Var(&world, "world", "world id")
	fs.Var(&item, "item", "item id")
	count := fs.Int("count", 0, "max sales (0 = default)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if world == 0 || item == 0 {
		return fmt.Errorf("%w: -world and -item are required", errUsage)
	}

	h, err := e.history.Retrieve(ctx, domain.HistoryQuery{
		WorldID: uint32(world),
		ItemID:  uint32(item),
		Count:   *count,
	})
	if err != nil {
		return err
	}
	if h == nil {
		fmt.Fprintf(e.out, "no history for world %d item %d\n", world, item)
		return nil
	}
	return e.renderer.RenderHistory(ctx, *h)
}

func (e *env) many(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("many", flag.ContinueOnError)
	worlds := fs.String("worlds", "", "comma-separated world ids")
	items := fs.String("items", "", "comma-separated item ids")
	count := fs.Int("count", 0, "max sales per item (0 = default)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	worldIDs, err := parseIDs(*worlds)
	if err != nil {
		return fmt.Errorf("%w: -worlds: %v", errUsage, err)
	}
	itemIDs, err := parseIDs(*items)
	if err != nil {
		return fmt.Errorf("%w: -items: %v", errUsage, err)
	}

	histories, err := e.history.RetrieveMany(ctx, domain.HistoryManyQuery{
		WorldIDs: worldIDs,
		ItemIDs:  itemIDs,
		Count:    *count,
	})
	if err != nil {
		return err
	}
	return e.renderer.RenderHistories(ctx, histories)
}

func (e *env) create(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	file := fs.String("file", "", "history JSON document")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *file == "" {
		return fmt.Errorf("%w: -file is required", errUsage)
	}

	var doc historyDocument
	if err := readJSON(*file, &doc); err != nil {
		return err
	}
	h, err := doc.toDomain()
	if err != nil {
		return fmt.Errorf("%q: %w", *file, err)
	}
	if err := e.history.Create(ctx, h); err != nil {
		return err
	}

	slog.Info("history created", "world", h.WorldID, "item", h.ItemID, "sales", len(h.Sales))
	return nil
}

func (e *env) appendSales(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("append", flag.ContinueOnError)
	var world, item idFlag
	fs.Var(&world, "world", "world id")
	fs.Var(&item, "item", "item id")
	file := fs.String("file", "", "JSON array of sales")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if world == 0 || item == 0 || *file == "" {
		return fmt.Errorf("%w: -world, -item and -file are required", errUsage)
	}

	var docs []saleDocument
	if err := readJSON(*file, &docs); err != nil {
		return err
	}
	sales := make([]domain.Sale, len(docs))
	for i, d := range docs {
		sale, err := d.toDomain(uint32(world), uint32(item))
		if err != nil {
			return fmt.Errorf("%q: [%d]: %w", *file, i, err)
		}
		sales[i] = sale
	}

	q := domain.HistoryQuery{WorldID: uint32(world), ItemID: uint32(item)}
	if err := e.history.InsertSales(ctx, sales, q); err != nil {
		return err
	}

	slog.Info("sales appended", "world", q.WorldID, "item", q.ItemID, "sales", len(sales))
	return nil
}

func (e *env) touch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("touch", flag.ContinueOnError)
	var world, item idFlag
	fs.Var(&world, "world", "world id")
	fs.Var(&item, "item", "item id")
	at := fs.String("at", "", "upload time (RFC3339, default now)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if world == 0 || item == 0 {
		return fmt.Errorf("%w: -world and -item are required", errUsage)
	}

	when := time.Now().UTC()
	if *at != "" {
		parsed, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("%w: -at: %v", errUsage, err)
		}
		when = parsed.UTC()
	}

	marker := domain.MarketItem{WorldID: uint32(world), ItemID: uint32(item), LastUploadTime: when}
	if err := e.items.Update(ctx, marker); err != nil {
		return err
	}

	fmt.Fprintf(e.out, "world %d item %d marked at %s\n", marker.WorldID, marker.ItemID, when.Format(time.RFC3339))
	return nil
}

// idFlag es un flag.Value que solo acepta ids de 32 bits; fs.Uint truncaría
// 4294967297 a 1.
type idFlag uint32

func (f *idFlag) String() string { return strconv.FormatUint(uint64(*f), 10) }

func (f *idFlag) Set(s string) error {
	n, err := parseID(s)
	if err != nil {
		return err
	}
	*f = idFlag(n)
	return nil
}

func parseID(s string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint32(n), nil
}

// parseIDs interpreta "1,2, 3" como []uint32.
func parseIDs(s string) ([]uint32, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("at least one id is required")
	}
	parts := strings.Split(s, ",")
	ids := make([]uint32, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := parseID(p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, n)
	}
	if len(ids) == 0 {
		return nil, errors.New("at least one id is required")
	}
	return ids, nil
}
