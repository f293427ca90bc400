package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tendant/simple-essence/pkg/essence"
	"github.com/tendant/simple-essence/pkg/essence/api"
)

// NewRenderCommand creates the render command
func NewRenderCommand() *cobra.Command {
	var elementName, contentName, partName string
	var opts []string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one content of an element",
		Long: `Render the view or editor partial of the content named --name inside
the element named --element. A missing content prints nothing.`,
		Example: `  essence render -f page.yaml --element article --name intro --part editor --opt css_class=lead`,
		RunE: func(cmd *cobra.Command, args []string) error {
			part, err := essence.ParsePart(partName)
			if err != nil {
				return err
			}
			options, err := parseOpts(opts)
			if err != nil {
				return err
			}

			s, err := newSessionFromFlags(cmd)
			if err != nil {
				return err
			}
			element, err := s.element(elementName)
			if err != nil {
				return err
			}

			var html string
			if part == essence.PartEditor {
				html, err = s.renderer.RenderEssenceEditorByName(cmd.Context(), element, contentName, options)
			} else {
				html, err = s.renderer.RenderEssenceViewByName(cmd.Context(), element, contentName, options)
			}
			if err != nil {
				return err
			}
			if html == "" {
				return nil
			}
			return writeLine(cmd.OutOrStdout(), html)
		},
	}

	cmd.Flags().StringVar(&elementName, "element", "", "element name (required)")
	cmd.Flags().StringVar(&contentName, "name", "", "content name (required)")
	cmd.Flags().StringVar(&partName, "part", string(essence.PartView), "part to render: view or editor")
	cmd.Flags().StringArrayVar(&opts, "opt", nil, "render option as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("element")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// NewSettingCommand creates the setting command
func NewSettingCommand() *cobra.Command {
	var elementName, contentName, key string
	var opts []string

	cmd := &cobra.Command{
		Use:   "setting",
		Short: "Resolve a setting from options and content settings",
		Example: `  essence setting -f page.yaml --element article --name intro --key css_class --opt css_class=lead`,
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := parseOpts(opts)
			if err != nil {
				return err
			}

			s, err := newSessionFromFlags(cmd)
			if err != nil {
				return err
			}
			element, err := s.element(elementName)
			if err != nil {
				return err
			}
			content := element.ContentByName(contentName)
			if content == nil {
				return fmt.Errorf("%w: %s", essence.ErrContentNotFound, contentName)
			}

			value, found := essence.ValueFromSettingsOrOptions(content, options, key)
			out, err := json.Marshal(api.SettingResponse{
				Key:   essence.NormalizeKey(key),
				Value: value,
				Found: found,
			})
			if err != nil {
				return err
			}
			return writeLine(cmd.OutOrStdout(), string(out))
		},
	}

	cmd.Flags().StringVar(&elementName, "element", "", "element name (required)")
	cmd.Flags().StringVar(&contentName, "name", "", "content name (required)")
	cmd.Flags().StringVar(&key, "key", "", "setting key, ':key' and 'key' are equivalent (required)")
	cmd.Flags().StringArrayVar(&opts, "opt", nil, "option as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("element")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

// NewElementsCommand creates the elements command
func NewElementsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elements",
		Short: "List the elements and contents of a fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSessionFromFlags(cmd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "ELEMENT\tCONTENT\tTYPE\tESSENCE\n")
			for _, el := range s.elements {
				if len(el.Contents) == 0 {
					fmt.Fprintf(w, "%s\t-\t-\t-\n", el.Name)
					continue
				}
				for _, c := range el.Contents {
					state := "ok"
					if c.Essence == nil {
						state = "missing"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", el.Name, c.Name, c.EssenceType, state)
				}
			}
			return w.Flush()
		},
	}
	return cmd
}

// parseOpts converts key=value flags into render options
func parseOpts(raw []string) (essence.Options, error) {
	values := url.Values{}
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid option %q, want key=value", kv)
		}
		values.Add(key, value)
	}
	return api.OptionsFromQuery(values), nil
}
