package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alejandrodnm/marketboard/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.HistoryRenderer escribiendo tablas de texto.
type Console struct {
	out      io.Writer
	maxSales int // 0 = todas
}

// NewConsole crea un renderer que escribe a stdout.
func NewConsole(maxSales int) *Console {
	return &Console{out: os.Stdout, maxSales: maxSales}
}

// NewConsoleWriter crea un renderer sobre un writer arbitrario (tests).
func NewConsoleWriter(w io.Writer, maxSales int) *Console {
	return &Console{out: w, maxSales: maxSales}
}

// RenderHistory imprime la cabecera del marker y la tabla de ventas.
func (c *Console) RenderHistory(_ context.Context, h domain.History) error {
	uploaded := time.UnixMilli(h.LastUploadTimeUnixMilliseconds).UTC()
	fmt.Fprintf(c.out, "\nworld %d · item %d · last upload %s · %d sales\n",
		h.WorldID, h.ItemID, uploaded.Format(time.RFC3339), len(h.Sales))

	if len(h.Sales) == 0 {
		fmt.Fprintln(c.out, "  no sales recorded")
		return nil
	}

	sales := h.Sales
	if c.maxSales > 0 && len(sales) > c.maxSales {
		sales = sales[:c.maxSales]
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Sale time", "HQ", "Price", "Qty", "Total", "Buyer")
	for i, s := range sales {
		table.Append(
			fmt.Sprintf("%d", i+1),
			s.SaleTime.UTC().Format("2006-01-02 15:04:05"),
			hqLabel(s.Hq),
			fmt.Sprintf("%d", s.PricePerUnit),
			fmt.Sprintf("%d", s.Quantity),
			fmt.Sprintf("%d", s.Total()),
			truncate(s.BuyerName, 20),
		)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("notify.RenderHistory: %w", err)
	}

	if hidden := len(h.Sales) - len(sales); hidden > 0 {
		fmt.Fprintf(c.out, "  … %d more\n", hidden)
	}
	return nil
}

// RenderHistories imprime un resumen por clave y luego cada historia.
func (c *Console) RenderHistories(ctx context.Context, histories []domain.History) error {
	if len(histories) == 0 {
		fmt.Fprintln(c.out, "no history found")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("World", "Item", "Last upload", "Sales", "Avg price")
	for _, h := range histories {
		table.Append(
			fmt.Sprintf("%d", h.WorldID),
			fmt.Sprintf("%d", h.ItemID),
			time.UnixMilli(h.LastUploadTimeUnixMilliseconds).UTC().Format(time.RFC3339),
			fmt.Sprintf("%d", len(h.Sales)),
			fmt.Sprintf("%.0f", avgUnitPrice(h.Sales)),
		)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("notify.RenderHistories: %w", err)
	}

	for _, h := range histories {
		if err := c.RenderHistory(ctx, h); err != nil {
			return err
		}
	}
	return nil
}

// avgUnitPrice es el precio unitario medio ponderado por cantidad.
func avgUnitPrice(sales []domain.Sale) float64 {
	var total, qty uint64
	for _, s := range sales {
		total += s.Total()
		qty += uint64(s.Quantity)
	}
	if qty == 0 {
		return 0
	}
	return float64(total) / float64(qty)
}

func hqLabel(hq bool) string {
	if hq {
		return "HQ"
	}
	return ""
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}
