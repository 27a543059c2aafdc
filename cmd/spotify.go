package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/kidsbox/internal/formatter"
	"github.com/desertthunder/kidsbox/internal/services"
	"github.com/desertthunder/kidsbox/internal/shared"
	"github.com/urfave/cli/v3"
)

// Devices lists the user's Spotify Connect devices.
func (r *Runner) Devices(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(ctx); err != nil {
		return err
	}

	devices, err := r.spotify.ListDevices(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(devices, cmd.Bool("pretty"))
	}

	if format := cmd.String("format"); format != "" {
		if path := cmd.String("output"); path != "" {
			if err := formatter.WriteExport(format, devices, path); err != nil {
				return err
			}
			r.logger.Info("devices exported", "format", format, "file", path)
			return r.writePlain("✓ Exported %d devices to %s\n", len(devices), path)
		}

		data, err := formatter.Render(format, devices)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}

	if len(devices) == 0 {
		return r.writePlain("No devices found. Open Spotify on a speaker or phone and try again.\n")
	}

	r.writePlain("Found %d devices:\n\n", len(devices))
	for i, d := range devices {
		active := ""
		if d.IsActive {
			active = " (active)"
		}
		r.writePlain("%d. %s%s\n", i+1, d.Name, active)
		r.writePlain("   ID: %s\n", d.ID)
		r.writePlain("   Type: %s\n", d.Type)
		if d.VolumePercent != nil {
			r.writePlain("   Volume: %d%%\n", *d.VolumePercent)
		}
	}

	return nil
}

// Play starts the kids song, or --track, on --device.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	device := cmd.String("device")
	if device == "" {
		return fmt.Errorf("%w: --device", shared.ErrMissingArgument)
	}

	track := cmd.String("track")
	if track == "" {
		track = services.KidsTrackURI
	}

	if err := r.init(ctx); err != nil {
		return err
	}

	if err := r.spotify.StartPlayback(ctx, device, track); err != nil {
		return fmt.Errorf("could not start: %w", err)
	}

	return r.writePlain("Started!\n")
}
