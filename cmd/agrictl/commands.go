package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/agri-assist-service/internal/domain"
)

func (c *cli) weatherCmd() *cobra.Command {
	var lat, lon float64
	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Current conditions, forecast and alerts",
	}
	cmd.PersistentFlags().Float64Var(&lat, "lat", 28.6139, "Latitude")
	cmd.PersistentFlags().Float64Var(&lon, "lon", 77.2090, "Longitude")

	cmd.AddCommand(&cobra.Command{
		Use:   "current",
		Short: "Current conditions at a point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			res, err := c.app.Weather.Current(ctx, lat, lon)
			return printResult(cmd, res, err)
		},
	}, &cobra.Command{
		Use:   "forecast",
		Short: "Seven-entry forecast at a point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			res, err := c.app.Weather.Forecast(ctx, lat, lon)
			return printResult(cmd, res, err)
		},
	}, &cobra.Command{
		Use:   "alerts",
		Short: "Active weather advisories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printData(cmd, c.app.Weather.Alerts())
		},
	})
	return cmd
}

func (c *cli) marketCmd() *cobra.Command {
	var loc domain.Location
	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Mandi and commodity prices for a location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			res, err := c.app.Market.Prices(ctx, loc)
			return printResult(cmd, res, err)
		},
	}
	cmd.Flags().Float64Var(&loc.Latitude, "lat", 28.6139, "Latitude")
	cmd.Flags().Float64Var(&loc.Longitude, "lon", 77.2090, "Longitude")
	cmd.Flags().StringVar(&loc.District, "district", "New Delhi", "District")
	cmd.Flags().StringVar(&loc.State, "state", "Delhi", "State")
	cmd.Flags().StringVar(&loc.Pincode, "pincode", "110001", "Pincode")
	return cmd
}

func (c *cli) cropsCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "crops <season>",
		Short:     "Crops suited to a season (kharif, rabi or zaid)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{domain.SeasonKharif, domain.SeasonRabi, domain.SeasonZaid},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := domain.ParseSeason(args[0])
			if err != nil {
				return err
			}
			return printData(cmd, c.app.Fallback.CropRecommendations(s))
		},
	}
}

func (c *cli) pestCmd() *cobra.Command {
	var simulate bool
	cmd := &cobra.Command{
		Use:   "pest <image>",
		Short: "Identify pests in a plant photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			img := domain.Image{Name: filepath.Base(args[0]), Data: data}

			ctx, cancel := c.context(cmd)
			defer cancel()
			if simulate {
				res, err := c.app.Pest.Simulate(ctx, img)
				return printResult(cmd, res, err)
			}
			res, err := c.app.Pest.Detect(ctx, img)
			return printResult(cmd, res, err)
		},
	}
	cmd.Flags().BoolVar(&simulate, "simulate", false, "Use the demo detector instead of the classifier")
	return cmd
}

func (c *cli) chatCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask the farming assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			reply, err := c.app.Assistant.Send(ctx, "", strings.Join(args, " "), lang)
			if err != nil {
				return err
			}
			return printData(cmd, reply)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", domain.LangEnglish, "Reply language (en or hi)")
	return cmd
}

func (c *cli) communityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "community",
		Short: "Recent community forum posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printData(cmd, c.app.Fallback.CommunityPosts())
		},
	}
}

func (c *cli) tipsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tips [category]",
		Short: "Farming tips, optionally filtered by category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var category string
			if len(args) == 1 {
				category = args[0]
			}
			return printData(cmd, c.app.Fallback.FarmingTips(category))
		},
	}
}

func (c *cli) translateCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "translate <text>",
		Short: "Look a term up in the glossary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printData(cmd, map[string]string{
				"text":        args[0],
				"language":    domain.NormalizeLanguage(lang),
				"translation": c.app.Fallback.Translate(args[0], lang),
			})
		},
	}
	cmd.Flags().StringVar(&lang, "lang", domain.LangHindi, "Target language")
	return cmd
}
