package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/feitianbubu/styleai"
	"github.com/feitianbubu/styleai/adapters"
)

// envelope is what the run commands print
type envelope[T any] struct {
	*adapters.Response[T]
	Retryable bool `json:"retryable,omitempty"`
}

// printResponse writes resp as indented JSON and turns failures into a non-zero exit
func printResponse[T any](cmd *cobra.Command, resp *adapters.Response[T]) error {
	if err := writeJSON(cmd.OutOrStdout(), envelope[T]{Response: resp, Retryable: resp.Retryable()}); err != nil {
		return err
	}
	switch {
	case resp.Success:
		return nil
	case resp.Cancelled():
		fmt.Fprintln(cmd.ErrOrStderr(), "cancelled")
		return nil
	default:
		return fmt.Errorf("%s: %s", resp.ErrorKind, resp.Error)
	}
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func loadMedia(paths ...string) ([]*adapters.MediaUpload, error) {
	media := make([]*adapters.MediaUpload, 0, len(paths))
	for _, p := range paths {
		m, err := adapters.MediaFromFile(p)
		if err != nil {
			return nil, err
		}
		media = append(media, m)
	}
	return media, nil
}

func newTryOnCmd() *cobra.Command {
	var (
		person, garment string
		opts            adapters.TryOnOptions
		category        string
	)
	cmd := &cobra.Command{
		Use:   "tryon",
		Short: "Render a garment onto a photo of a person",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			media, err := loadMedia(person, garment)
			if err != nil {
				return err
			}
			opts.GarmentCategory = adapters.GarmentCategory(category)

			return withManager(func(m *styleai.Manager) error {
				if err := selectProvider(m, styleai.CategoryClothingTryOn); err != nil {
					return err
				}
				svc, err := m.ClothingTryOnService()
				if err != nil {
					return err
				}
				resp := svc.TryOn(cmd.Context(), &adapters.TryOnRequest{
					PersonImage:  media[0],
					GarmentImage: media[1],
					Options:      opts,
				})
				return printResponse(cmd, resp)
			})
		},
	}

	cmd.Flags().StringVar(&person, "person", "", "Photo of the person")
	cmd.Flags().StringVar(&garment, "garment", "", "Photo of the garment")
	cmd.Flags().StringVar(&category, "category", string(adapters.GarmentUpperBody), "Garment category (upper_body, lower_body, dresses)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "Garment description")
	cmd.Flags().StringVar(&opts.Model, "model", "", "Vendor model name")
	_ = cmd.MarkFlagRequired("person")
	_ = cmd.MarkFlagRequired("garment")
	addProviderFlag(cmd, styleai.CategoryClothingTryOn)
	return cmd
}

func newDecorCmd() *cobra.Command {
	var (
		room  string
		items []string
		opts  adapters.DecorOptions
	)
	cmd := &cobra.Command{
		Use:   "decor",
		Short: "Place decor items into a photo of a room",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			media, err := loadMedia(append([]string{room}, items...)...)
			if err != nil {
				return err
			}

			return withManager(func(m *styleai.Manager) error {
				if err := selectProvider(m, styleai.CategoryDecorVisualization); err != nil {
					return err
				}
				svc, err := m.DecorVisualizationService()
				if err != nil {
					return err
				}
				resp := svc.Visualize(cmd.Context(), &adapters.DecorRequest{
					RoomImage:  media[0],
					DecorItems: media[1:],
					Options:    opts,
				})
				return printResponse(cmd, resp)
			})
		},
	}

	cmd.Flags().StringVar(&room, "room", "", "Photo of the room")
	cmd.Flags().StringSliceVar(&items, "item", nil, "Decor item image (repeatable)")
	cmd.Flags().StringVar(&opts.Style, "style", "", "Interior style, e.g. scandinavian")
	cmd.Flags().StringVar(&opts.RoomType, "room-type", "", "Room type, e.g. bedroom")
	cmd.Flags().StringVar(&opts.Prompt, "prompt", "", "Free-form prompt overriding style and room type")
	cmd.Flags().StringVar(&opts.Placement, "placement", "", "Where to place the items")
	_ = cmd.MarkFlagRequired("room")
	addProviderFlag(cmd, styleai.CategoryDecorVisualization)
	return cmd
}

func newSizeCmd() *cobra.Command {
	var (
		front, side string
		opts        adapters.SizingOptions
	)
	cmd := &cobra.Command{
		Use:   "size",
		Short: "Estimate body measurements from a front and a side photo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			media, err := loadMedia(front, side)
			if err != nil {
				return err
			}

			return withManager(func(m *styleai.Manager) error {
				if err := selectProvider(m, styleai.CategoryAISizing); err != nil {
					return err
				}
				svc, err := m.AISizingService()
				if err != nil {
					return err
				}
				resp := svc.AnalyzeMeasurements(cmd.Context(), &adapters.SizingRequest{
					FrontImage: media[0],
					SideImage:  media[1],
					Options:    opts,
				})
				return printResponse(cmd, resp)
			})
		},
	}

	cmd.Flags().StringVar(&front, "front", "", "Front photo")
	cmd.Flags().StringVar(&side, "side", "", "Side photo")
	cmd.Flags().Float64Var(&opts.HeightCM, "height", 0, "Known height in cm")
	cmd.Flags().Float64Var(&opts.WeightKG, "weight", 0, "Known weight in kg")
	cmd.Flags().StringVar(&opts.Gender, "gender", "", "Gender hint")
	_ = cmd.MarkFlagRequired("front")
	_ = cmd.MarkFlagRequired("side")
	addProviderFlag(cmd, styleai.CategoryAISizing)
	return cmd
}
