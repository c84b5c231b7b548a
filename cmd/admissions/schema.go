package main

import (
	"context"
	"fmt"

	"admissions/internal/formschema"
	"admissions/pkg/types"

	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"
)

var schemaCommand = &cli.Command{
	Name:  "schema",
	Usage: "Inspect form configurations",
	Subcommands: []*cli.Command{
		{
			Name:  "show",
			Usage: "Print an institute's saved form configuration",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "institute",
					Aliases:  []string{"i"},
					Usage:    "Institute id",
					Required: true,
				},
			},
			Action: showSchema,
		},
		{
			Name:  "catalog",
			Usage: "Print the predefined field catalog",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "category",
					Usage: "Personal or Education",
				},
			},
			Action: showCatalog,
		},
	},
}

func showSchema(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := context.Background()
	logger, err := newLogger(c)
	if err != nil {
		return err
	}

	be, closeBackend, err := buildBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	doc, err := be.Forms.FormByInstitute(ctx, c.String("institute"))
	if err != nil {
		return fmt.Errorf("failed to load form: %w", err)
	}

	pp.Println(doc)

	if err := formschema.CheckMandatory(formschema.FromDocument(doc)); err != nil {
		logger.WithError(err).Warn("saved form is missing mandatory fields")
	}

	return nil
}

func showCatalog(c *cli.Context) error {
	catalog := formschema.DefaultCatalog()

	categories := types.Categories
	if name := c.String("category"); name != "" {
		category := types.Category(name)
		if !category.Valid() {
			return fmt.Errorf("unknown category %q", name)
		}
		categories = []types.Category{category}
	}

	for _, category := range categories {
		for _, section := range catalog.Sections(category) {
			fmt.Printf("%s / %s\n", category, section)
			pp.Println(catalog.Templates(category, section))
		}
	}

	return nil
}
