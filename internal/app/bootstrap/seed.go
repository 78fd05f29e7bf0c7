package bootstrap

import (
	"context"
	"fmt"

	"github.com/wolfman30/braidbook/internal/availability"
	"github.com/wolfman30/braidbook/internal/calendar"
	"github.com/wolfman30/braidbook/internal/catalog"
)

type demoVariant struct {
	name    string
	minutes int
	cents   int64
}

var demoMenu = []struct {
	name        string
	description string
	variants    []demoVariant
}{
	{"Box Braids", "Tranças individuais em formato de caixa", []demoVariant{
		{"Curta (até ombros)", 240, 18000},
		{"Média (até meio das costas)", 300, 23000},
		{"Longa (até cintura)", 360, 28000},
		{"Extra Longa (abaixo da cintura)", 420, 35000},
	}},
	{"Nagô", "Tranças rentes ao couro cabeludo", []demoVariant{
		{"Simples (até 10 tranças)", 120, 8000},
		{"Médio (10-20 tranças)", 180, 12000},
		{"Complexo (mais de 20 tranças)", 240, 16000},
	}},
	{"Twists", "Tranças retorcidas, leves e naturais", []demoVariant{
		{"Twists Curtos", 180, 13000},
		{"Twists Médios", 240, 17000},
		{"Twists Longos", 300, 22000},
	}},
	{"Crochet Braids", "Aplicação de cabelo sintético com crochê", []demoVariant{
		{"Crochet Curto", 120, 15000},
		{"Crochet Médio", 150, 19000},
		{"Crochet Longo", 180, 24000},
	}},
}

// SeedDemo loads opening hours (Monday to Friday 09:00-19:00, Saturday
// 09:00-17:00) and the salon menu into empty stores.
func SeedDemo(ctx context.Context, cal calendar.Store, menu catalog.Store) error {
	rules, err := cal.ListRules(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: seed rules: %w", err)
	}
	if len(rules) == 0 {
		for day := 1; day <= 6; day++ {
			end := "19:00"
			if day == 6 {
				end = "17:00"
			}
			rule := availability.Rule{DayOfWeek: day, StartTime: "09:00", EndTime: end, Active: true}
			if err := cal.CreateRule(ctx, &rule); err != nil {
				return fmt.Errorf("bootstrap: seed rule %d: %w", day, err)
			}
		}
	}

	services, err := menu.ListServices(ctx, false)
	if err != nil {
		return fmt.Errorf("bootstrap: seed catalog: %w", err)
	}
	if len(services) > 0 {
		return nil
	}
	for i, item := range demoMenu {
		svc := catalog.Service{Name: item.name, Description: item.description, SortOrder: i + 1, Active: true}
		if err := menu.CreateService(ctx, &svc); err != nil {
			return fmt.Errorf("bootstrap: seed service %q: %w", item.name, err)
		}
		for j, v := range item.variants {
			variant := catalog.Variant{
				ServiceID:       svc.ID,
				Name:            v.name,
				DurationMinutes: v.minutes,
				PriceCents:      v.cents,
				SortOrder:       j + 1,
				Active:          true,
			}
			if err := menu.CreateVariant(ctx, &variant); err != nil {
				return fmt.Errorf("bootstrap: seed variant %q: %w", v.name, err)
			}
		}
	}
	return nil
}
