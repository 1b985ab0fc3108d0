package seasonmigrations

import (
	"context"
	"fmt"

	seasondb "github.com/Black-And-White-Club/pitwall/app/modules/season/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			fmt.Println("Creating season_saves table...")
			if _, err := db.NewCreateTable().Model((*seasondb.SeasonSave)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create season_saves table: %w", err)
			}
			if _, err := db.NewRaw(`CREATE INDEX IF NOT EXISTS idx_season_saves_roster_created
				ON season_saves (roster, created_at DESC, race_no DESC)`).Exec(ctx); err != nil {
				return fmt.Errorf("failed to create season_saves index: %w", err)
			}
			fmt.Println("season_saves table created successfully!")
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			fmt.Println("Dropping season_saves table...")
			if _, err := db.NewDropTable().Model((*seasondb.SeasonSave)(nil)).IfExists().Cascade().Exec(ctx); err != nil {
				return fmt.Errorf("failed to drop season_saves table: %w", err)
			}
			fmt.Println("season_saves table dropped successfully!")
			return nil
		},
	)
}
