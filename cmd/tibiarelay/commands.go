package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"

	"github.com/udisondev/tibiarelay/internal/audit"
	"github.com/udisondev/tibiarelay/internal/packets"
)

// listTypes prints every packet the registry can decode.
func listTypes(r *packets.Registry) {
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Direction", "Tag", "Name"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, dir := range []packets.Direction{packets.Incoming, packets.Outgoing, packets.LoginResponse} {
		for _, e := range r.Entries(dir) {
			tw.Append([]string{dir.String(), e.Tag.String(), e.Name})
		}
	}
	tw.Render()
}

// dumpAudit prints what the audit store holds for one session.
func dumpAudit(ctx context.Context, path, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("session id: %w", err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}

	store, err := audit.Open(ctx, cfg.Audit)
	if err != nil {
		return fmt.Errorf("opening audit store: %w", err)
	}
	defer store.Close()

	evs, err := store.Events(ctx, id)
	if err != nil {
		return err
	}
	recs, err := store.Packets(ctx, id)
	if err != nil {
		return err
	}

	names := packets.DefaultRegistry()

	fmt.Println()
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Time", "Event", "Message"})
	tw.SetAutoWrapText(false)
	for _, ev := range evs {
		tw.Append([]string{ev.At.Format("15:04:05.000"), ev.Kind, ev.Message})
	}
	tw.Render()

	fmt.Println()
	tw = tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Time", "Direction", "Type", "Name", "Length"})
	tw.SetAutoWrapText(false)
	for _, rec := range recs {
		tw.Append([]string{
			rec.At.Format("15:04:05.000"),
			rec.Direction.String(),
			rec.Type.String(),
			names.Name(rec.Direction, rec.Type),
			strconv.Itoa(rec.Length),
		})
	}
	tw.Render()
	fmt.Printf("%d packets, %d events\n", len(recs), len(evs))
	return nil
}
