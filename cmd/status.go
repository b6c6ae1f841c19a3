package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/kopisync/internal/formatter"
	"github.com/desertthunder/kopisync/internal/repositories"
	"github.com/desertthunder/kopisync/internal/server"
	"github.com/desertthunder/kopisync/internal/shared"
	"github.com/desertthunder/kopisync/internal/ui"
	"github.com/urfave/cli/v3"
)

// Status prints the stored sync metadata rows.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if err := r.openDatabase(); err != nil {
		return err
	}
	defer r.close()

	rows, err := repositories.NewSyncMetadataRepository(r.db).List(ctx)
	if err != nil {
		return err
	}

	format := cmd.String("format")
	output := cmd.String("output")
	if format == "table" || format == "" {
		if output != "" {
			return fmt.Errorf("%w: --output needs a file format (csv, md, text or json)", shared.ErrInvalidArgument)
		}
		return r.writePlain("%s", ui.RenderStatus(rows))
	}

	f, err := formatter.ParseFormat(format)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	data, err := formatter.FormatStatus(rows, f)
	if err != nil {
		return err
	}
	if err := formatter.WriteExport(r.output, data, output); err != nil {
		return err
	}
	if output != "" {
		r.logger.Info("status exported", "path", output, "format", f)
	}
	return nil
}

// Token prints a signed admin bearer token.
func (r *Runner) Token(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	secret := r.config.Server.AdminJWTSecret
	if secret == "" {
		return fmt.Errorf("%w: set server.admin_jwt_secret or ADMIN_JWT_SECRET", shared.ErrMissingConfig)
	}

	token, err := server.IssueToken(secret, cmd.String("subject"), server.RoleAdmin, cmd.Duration("ttl"))
	if err != nil {
		return err
	}
	return r.writePlainln(token)
}
