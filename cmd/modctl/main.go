package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/alumnet/modguard/internal/moderation/lexicon"
	"github.com/alumnet/modguard/internal/moderation/types"
	"github.com/alumnet/modguard/internal/report"
	"github.com/alumnet/modguard/internal/setup"
	"github.com/alumnet/modguard/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
)

// CLILogDir specifies where modctl log files are stored.
const CLILogDir = "logs/modctl_logs"

var (
	ErrTextRequired  = errors.New("TEXT argument required")
	ErrIDRequired    = errors.New("ID and STATUS arguments required")
	ErrUserRequired  = errors.New("USER argument required")
	ErrInvalidStatus = errors.New("status must be reviewed or dismissed")
	ErrAlertNotFound = errors.New("alert not found")
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "modctl",
		Usage: "Content moderation admin tool",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to config.toml (searches the default config paths when empty)",
			},
		},
		Commands: []*cli.Command{
			scanCommand(),
			lexiconCommand(),
			alertsCommand(),
			warningsCommand(),
			sweepCommand(),
			statsCommand(),
			classifyCommand(),
		},
	}

	return app.Run(context.Background(), os.Args)
}

// withApp initializes the application for a single command and cleans it up afterwards.
func withApp(ctx context.Context, c *cli.Command, fn func(app *setup.App) error) error {
	app, err := setup.InitializeApp(ctx, telemetry.ServiceCLI, CLILogDir, c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup()

	return fn(app)
}

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Scan text against the lexicon without recording anything",
		ArgsUsage: "TEXT",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "lexicon",
				Usage: "Path to a JSON lexicon (built-in lexicon when empty)",
			},
		},
		Action: func(_ context.Context, c *cli.Command) error {
			text := strings.Join(c.Args().Slice(), " ")
			if text == "" {
				return ErrTextRequired
			}

			lex, err := lexicon.LoadOrDefault(c.String("lexicon"))
			if err != nil {
				return err
			}

			result := lexicon.NewScanner(lex).Scan(text)
			if !result.IsInappropriate {
				fmt.Println("✅ Clean")
				return nil
			}

			fmt.Printf("⚠️  Flagged: %s\n", strings.Join(result.DetectedTerms, ", "))
			fmt.Printf("Severity:   %s\n", result.Severity)
			fmt.Printf("Confidence: %.1f\n", result.Confidence)
			return nil
		},
	}
}

func lexiconCommand() *cli.Command {
	return &cli.Command{
		Name:  "lexicon",
		Usage: "Lexicon validation tools",
		Commands: []*cli.Command{
			{
				Name:  "check",
				Usage: "Check a lexicon for errors",
				Description: `Check the lexicon for:
- Empty or duplicated terms
- Severe terms missing from the term list
- Terms contained in other terms (notice only)

Returns exit code 1 if errors are found, 0 otherwise.`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "lexicon",
						Usage: "Path to a JSON lexicon (built-in lexicon when empty)",
					},
				},
				Action: func(_ context.Context, c *cli.Command) error {
					lex, err := lexicon.LoadOrDefault(c.String("lexicon"))
					if err != nil {
						return err
					}

					errorCount := 0
					for _, issue := range lexicon.Validate(lex) {
						marker := "•"
						if issue.IsError() {
							marker = "❌"
							errorCount++
						}
						fmt.Printf("%s %s\n", marker, issue.Description)
					}

					if errorCount > 0 {
						fmt.Printf("\nFound %d error(s)\n", errorCount)
						return cli.Exit("", 1)
					}

					fmt.Printf("✅ No errors found (%d terms, %d severe)\n", len(lex.Terms), len(lex.Severe))
					return nil
				},
			},
		},
	}
}

func alertsCommand() *cli.Command {
	return &cli.Command{
		Name:  "alerts",
		Usage: "Review moderation alerts",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List alerts, most recent first",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pending",
						Usage: "Only show alerts awaiting review",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withApp(ctx, c, func(app *setup.App) error {
						alerts := app.Engine.AllAlerts()
						if c.Bool("pending") {
							alerts = app.Engine.PendingAlerts()
						}

						if len(alerts) == 0 {
							fmt.Println("No alerts")
							return nil
						}

						for _, alert := range alerts {
							fmt.Printf("%s  %-9s %-6s %s (%s) %s: %q [%s]\n",
								alert.CreatedAt.Format("2006-01-02 15:04"),
								alert.Status, alert.Severity,
								alert.UserName, alert.UserID,
								alert.ContentType, alert.FlaggedContent,
								strings.Join(alert.DetectedTerms, ", "))
							fmt.Printf("    id: %s\n", alert.ID)
						}
						return nil
					})
				},
			},
			{
				Name:      "set",
				Usage:     "Set the review status of an alert",
				ArgsUsage: "ID STATUS",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() < 2 {
						return ErrIDRequired
					}

					id := c.Args().Get(0)
					status := types.AlertStatus(c.Args().Get(1))
					if !status.IsResolution() {
						return ErrInvalidStatus
					}

					return withApp(ctx, c, func(app *setup.App) error {
						if !app.Engine.UpdateAlertStatus(ctx, id, status) {
							return fmt.Errorf("%w: %s", ErrAlertNotFound, id)
						}

						fmt.Printf("✅ Alert %s marked %s\n", id, status)
						return nil
					})
				},
			},
		},
	}
}

func warningsCommand() *cli.Command {
	return &cli.Command{
		Name:  "warnings",
		Usage: "Inspect user warnings",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List a user's active warnings",
				ArgsUsage: "USER",
				Action: func(ctx context.Context, c *cli.Command) error {
					userID := c.Args().First()
					if userID == "" {
						return ErrUserRequired
					}

					return withApp(ctx, c, func(app *setup.App) error {
						warnings := app.Engine.ActiveWarnings(userID)

						fmt.Printf("User %s: %d warning(s) issued, %d active\n",
							userID, app.Engine.WarningCount(userID), len(warnings))

						for _, warning := range warnings {
							read := " "
							if warning.IsRead {
								read = "✓"
							}
							fmt.Printf("[%s] %s  %-6s %s (expires %s)\n    %s\n",
								read,
								warning.CreatedAt.Format("2006-01-02 15:04"),
								warning.Severity, warning.WarningType,
								warning.ExpiresAt.Format("2006-01-02"),
								warning.Message)
						}
						return nil
					})
				},
			},
		},
	}
}

func sweepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Remove expired warnings",
		Action: func(ctx context.Context, c *cli.Command) error {
			return withApp(ctx, c, func(app *setup.App) error {
				removed := app.Engine.SweepExpired(ctx)
				fmt.Printf("Removed %d expired warning(s)\n", removed)
				return nil
			})
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show moderation statistics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "chart",
				Usage: "Write a PNG chart of daily activity to this file",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return withApp(ctx, c, func(app *setup.App) error {
				stats := app.Engine.Stats()

				fmt.Printf("Alerts:          %d total, %d pending, %d today\n",
					stats.TotalAlerts, stats.PendingAlerts, stats.TodayAlerts)
				fmt.Printf("High severity:   %d pending\n", stats.HighSeverityPending)
				fmt.Printf("Warnings:        %d total, %d active\n",
					stats.TotalWarnings, stats.ActiveWarnings)

				chartPath := c.String("chart")
				if chartPath == "" {
					return nil
				}

				buf, err := report.NewChartBuilder(app.Engine.DailyActivity(report.DaysToShow)).Build()
				if err != nil {
					return err
				}

				if err := os.WriteFile(chartPath, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("failed to write chart: %w", err)
				}

				fmt.Printf("Chart written to %s\n", chartPath)
				return nil
			})
		},
	}
}

func classifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Ask the advisory classifier about text",
		ArgsUsage: "TEXT",
		Action: func(ctx context.Context, c *cli.Command) error {
			text := strings.Join(c.Args().Slice(), " ")
			if text == "" {
				return ErrTextRequired
			}

			return withApp(ctx, c, func(app *setup.App) error {
				assessment := app.Classifier.Classify(ctx, text)

				fmt.Printf("Outcome:     %s\n", assessment.Decision())
				fmt.Printf("Action:      %s (confidence %d)\n", assessment.SuggestedAction, assessment.Confidence)
				fmt.Printf("Severity:    %s\n", assessment.Severity)
				if len(assessment.Concerns) > 0 {
					fmt.Printf("Concerns:    %s\n", strings.Join(assessment.Concerns, ", "))
				}
				fmt.Printf("Explanation: %s\n", assessment.Explanation)
				return nil
			})
		},
	}
}
