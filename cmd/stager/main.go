package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/barsham/design-automation/internal/domain"
	"github.com/barsham/design-automation/internal/staging"
	"github.com/barsham/design-automation/internal/storage"
)

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "endpoint",
			Usage:   "Object store endpoint",
			EnvVars: []string{"STORAGE_ENDPOINT"},
			Value:   "localhost:9000",
		},
		&cli.StringFlag{
			Name:    "access-key",
			Usage:   "Object store access key",
			EnvVars: []string{"STORAGE_ACCESS_KEY"},
		},
		&cli.StringFlag{
			Name:    "secret-key",
			Usage:   "Object store secret key",
			EnvVars: []string{"STORAGE_SECRET_KEY"},
		},
		&cli.StringFlag{
			Name:    "bucket",
			Usage:   "Target bucket",
			EnvVars: []string{"STORAGE_BUCKET"},
			Value:   "design-automation",
		},
		&cli.BoolFlag{
			Name:    "ssl",
			Usage:   "Use TLS for the object store connection",
			EnvVars: []string{"STORAGE_USE_SSL"},
		},
		&cli.StringFlag{
			Name:    "project",
			Usage:   "Project identity used to derive canonical names",
			EnvVars: []string{"APP_PROJECT"},
			Value:   "default",
		},
	}
}

func newCoordinator(c *cli.Context) (*staging.Coordinator, error) {
	gateway, err := storage.NewMinioGateway(storage.MinioConfig{
		Endpoint:  c.String("endpoint"),
		AccessKey: c.String("access-key"),
		SecretKey: c.String("secret-key"),
		Bucket:    c.String("bucket"),
		UseSSL:    c.Bool("ssl"),
		URLExpiry: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return staging.NewCoordinator(storage.NewStaticResolver(gateway)), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func adopt(c *cli.Context) error {
	coordinator, err := newCoordinator(c)
	if err != nil {
		return err
	}

	slots := domain.NewSlotSet()
	bundle, err := coordinator.StageAdoption(c.Context, slots, c.String("doc-url"), c.String("tla"))
	if err != nil {
		return fmt.Errorf("adoption staging failed: %w", err)
	}

	return printJSON(map[string]any{"slots": slots, "bundle": bundle})
}

func publish(c *cli.Context) error {
	coordinator, err := newCoordinator(c)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(c.String("slots-file"))
	if err != nil {
		return fmt.Errorf("failed to read slots file: %w", err)
	}

	var slots domain.SlotSet
	if err := json.Unmarshal(data, &slots); err != nil {
		return fmt.Errorf("invalid slots file: %w", err)
	}

	namer := domain.ProjectNames(c.String("project"))
	hash, err := coordinator.PublishAll(c.Context, slots, namer, c.String("tla"))
	if err != nil {
		return fmt.Errorf("publication failed: %w", err)
	}

	return printJSON(map[string]string{"hash": hash})
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "stager",
		Usage: "Stage and publish conversion artifacts against an object store",
		Commands: []*cli.Command{
			{
				Name:  "adopt",
				Usage: "Stage an adoption run and print its slot set and bundle",
				Flags: append(storageFlags(),
					&cli.StringFlag{
						Name:     "doc-url",
						Usage:    "Input document URL",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "tla",
						Usage: "Top-level assembly name",
					},
				),
				Action: adopt,
			},
			{
				Name:  "publish",
				Usage: "Publish a staged run from a saved slot set",
				Flags: append(storageFlags(),
					&cli.StringFlag{
						Name:     "slots-file",
						Usage:    "Path to a JSON slot set produced by adopt",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "tla",
						Usage: "Top-level assembly name recorded in metadata",
					},
				),
				Action: publish,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
