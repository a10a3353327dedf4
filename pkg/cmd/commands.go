package cmd

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zbridge"
)

func extractCommand(conf *zbridge.Configuration) *cobra.Command {
	var (
		flags    zbridge.CatalogFlags
		manifest string
	)

	cmd := &cobra.Command{
		Use:   "extract [-a allowed]... [-r required]... [--mode mode] [-m manifest]",
		Short: "Extract bridge declarations and catalog them",
		RunE: func(cmd *cobra.Command, args []string) error {
			// settings fill in whatever the flags left untouched
			stored := conf.Settings().Catalog
			fl := cmd.Flags()
			if !fl.Changed("allowed") && len(stored.Allowed) > 0 {
				flags.Allowed = stored.Allowed
			}
			if !fl.Changed("required") && len(stored.Required) > 0 {
				flags.Required = stored.Required
			}
			if !fl.Changed("mode") && stored.Mode != "" {
				flags.Mode = stored.Mode
			}
			flags.Defaults = stored.Defaults

			c := conf
			if manifest != "" {
				m, err := zbridge.LoadManifest(manifest)
				if err != nil {
					return errors.Wrap(err, "failed to load manifest")
				}
				c = conf.WithManifest(m)
			}
			return zbridge.Extract(c, flags)
		},
	}

	fl := cmd.Flags()
	fl.StringArrayVarP(&flags.Allowed, "allowed", "a", []string{"."}, "Folders to search for annotated sources")
	fl.StringArrayVarP(&flags.Required, "required", "r", []string{"*"}, "Sources to catalog. Defaults to all")
	fl.StringVar(&flags.Mode, "mode", string(zbridge.C_UPDATE), "Catalog mode: skip, missing, update, reset")
	fl.StringVarP(&manifest, "manifest", "m", "", "Project manifest to catalog from")

	return cmd
}

func listCommand(conf *zbridge.Configuration) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [module]...",
		Short: "List cataloged bridge declarations",
		RunE: func(cmd *cobra.Command, args []string) error {
			mods, err := zbridge.StoredModules(conf, args)
			if err != nil {
				return errors.Wrap(err, "failed to list modules")
			}

			out := cmd.OutOrStdout()
			for _, mod := range mods {
				fmt.Fprintf(out, "%s (%s)\n", mod.Name, mod.Location)
				for _, fn := range mod.Funcs {
					params, err := fn.ParamTypes()
					if err != nil {
						return err
					}

					opts, err := fn.OptionList()
					if err != nil {
						return err
					}

					var spellings []string
					for _, p := range params {
						spellings = append(spellings, string(p))
					}
					line := fmt.Sprintf("  %s/%d (%s) %s",
						fn.Name, fn.Arity, strings.Join(spellings, ", "), fn.Retval)
					if len(opts) > 0 {
						line += " [" + strings.Join(opts, ", ") + "]"
					}
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}

	return cmd
}
