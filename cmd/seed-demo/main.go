// Command seed-demo loads a demo event with a VIP list and a few ticket
// codes so the access endpoint can be tried out on a fresh database.
package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"controle-acesso/internal/access/db"
	"controle-acesso/internal/config"
	"controle-acesso/internal/database"
	"controle-acesso/internal/logger"
	"controle-acesso/internal/models"
)

var demoVips = []string{
	"Lula",
	"Emmanuel Macron",
	"Taylor Swift",
	"Neymar Jr",
	"Ronaldo Nazário",
}

var demoTickets = []string{
	"ING123FESTIVAL",
	"ING456FESTIVAL",
	"ING789FESTIVAL",
	"INGVIP001",
}

func main() {
	_ = godotenv.Load() // Loads .env file if present

	log := logger.NewLogger()
	defer log.Close()

	cfg := config.Load()
	ctx := context.Background()

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	store := &db.DB{Bun: bunDB}
	if cfg.Database.Driver != "postgres" {
		if err := store.CreateSchema(ctx); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to create schema: %v", err))
		}
	}

	taken, err := store.ExistingTicketCodes(ctx, demoTickets)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to check ticket codes: %v", err))
	}
	if len(taken) > 0 {
		log.Warn("SEED", fmt.Sprintf("Demo data already present (%v), nothing to do", taken))
		return
	}

	if err := seed(ctx, store, time.Now().UTC()); err != nil {
		log.Fatal("SEED", err.Error())
	}
	log.Info("SEED", fmt.Sprintf("Demo event seeded with %d VIPs and %d tickets", len(demoVips), len(demoTickets)))
}

func seed(ctx context.Context, store *db.DB, now time.Time) error {
	start := now.Truncate(time.Hour)
	event := models.Event{
		ID:          uuid.NewString(),
		Name:        "Festival Demo",
		StartsAt:    start,
		EndsAt:      start.Add(24 * time.Hour),
		Location:    "Arena",
		Description: "Demo event",
		CreatedAt:   now,
	}
	if err := store.CreateEvent(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	var errs []error
	for i, name := range demoVips {
		err := store.AddVip(ctx, models.VipEntry{
			ID:        uuid.NewString(),
			EventID:   event.ID,
			FullName:  name,
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("add vip %s: %w", name, err))
		}
	}

	tickets := make([]models.TicketCode, 0, len(demoTickets))
	for _, code := range demoTickets {
		ticketType := models.TicketTypeStandard
		if code == "INGVIP001" {
			ticketType = models.TicketTypeVIP
		}
		tickets = append(tickets, models.TicketCode{
			ID:        uuid.NewString(),
			EventID:   event.ID,
			Code:      code,
			Type:      ticketType,
			CreatedAt: now,
		})
	}
	if err := store.CreateTickets(ctx, tickets); err != nil {
		errs = append(errs, fmt.Errorf("create tickets: %w", err))
	}
	return errors.Join(errs...)
}
