// Command seed writes a demo state file for local development: one event
// with slots, sessions and invitation codes, plus an admin account with a
// known password.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mahsan/gather/internal/adapters/repository"
	"github.com/mahsan/gather/internal/auth"
	"github.com/mahsan/gather/internal/domain/model"
	"github.com/mahsan/gather/pkg/logger"
)

// Default generation parameters.
const (
	defaultSlots    = 2
	defaultSessions = 3
	defaultSeats    = 10
	defaultInvites  = 20
)

func main() {
	var (
		output   = flag.String("output", "data/state.json", "State file to write")
		name     = flag.String("name", "Demo Conference", "Event name")
		slots    = flag.Int("slots", defaultSlots, "Number of time slots")
		sessions = flag.Int("sessions", defaultSessions, "Sessions per slot")
		seats    = flag.Int("seats", defaultSeats, "Seats per session")
		invites  = flag.Int("invites", defaultInvites, "Invitation codes to generate")
		password = flag.String("admin-password", "admin", "Password for the admin account")
		open     = flag.Bool("open", true, "Open the event for registration")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(context.Background(), *output, *name, *slots, *sessions, *seats, *invites, *password, *open); err != nil {
		os.Stderr.WriteString("seed failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context, output, name string, slots, sessions, seats, invites int, password string, open bool) error {
	st := repository.NewStorage()

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	st.Admins["admin"] = &model.AdminAccount{Username: "admin", PasswordHash: hash}

	event := model.NewEvent(name, "Generated demo data")
	if open {
		if err := event.Transition(model.StateOpenForRegistration); err != nil {
			return err
		}
	}
	for i := 0; i < slots; i++ {
		slot := model.NewSlot(fmt.Sprintf("Slot %d", i+1), "")
		for j := 0; j < sessions; j++ {
			slot.Sessions = append(slot.Sessions,
				model.NewSession(fmt.Sprintf("Session %d.%d", i+1, j+1), "", seats))
		}
		event.Slots = append(event.Slots, slot)
	}
	st.Events[event.ID] = event

	for i := 0; i < invites; i++ {
		code := fmt.Sprintf("demo-%04d", i+1)
		st.Invitations[code] = &model.Invitation{Code: code, EventID: event.ID}
	}

	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	if err := os.WriteFile(output, raw, 0o600); err != nil {
		return err
	}

	log := logger.Get()
	log.Info(ctx, "demo state written",
		logger.String("path", output),
		logger.String("event_id", event.ID.String()),
		logger.Int("invites", invites),
	)
	fmt.Printf("wrote %s\nadmin password: %s\ninvite codes: demo-0001 .. demo-%04d\n", output, password, invites)
	return nil
}
