package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/inventure/venturesim/internal/backup"
	"github.com/inventure/venturesim/internal/preset"
	"github.com/inventure/venturesim/internal/report"
	"github.com/inventure/venturesim/internal/sanitize"
	"github.com/inventure/venturesim/internal/store"
)

func newPresetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage named scenarios",
		Long: `Presets are named scenario configurations. The built-in presets
(baseline, conservative, aggressive, correlated-market) are read-only;
your own presets are kept in ~/.venturesim/presets.db.

Examples:
  venturesim preset list
  venturesim preset save fund-iii --preset conservative --pre-seed 1200
  venturesim preset export fund-iii fund-iii.yaml
  venturesim preset import shared.yaml --name shared
  venturesim preset backup --keep 5
  venturesim run --preset fund-iii`,
	}

	cmd.AddCommand(
		newPresetListCmd(),
		newPresetShowCmd(),
		newPresetSaveCmd(),
		newPresetDeleteCmd(),
		newPresetExportCmd(),
		newPresetImportCmd(),
		newPresetBackupCmd(),
		newPresetRestoreCmd(),
	)

	return cmd
}

// withStore opens the preset database for the duration of fn.
func withStore(cmd *cobra.Command, fn func(a *app, s store.PresetStore) error) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := store.NewSQLitePresetStore(a.dir)
	if err != nil {
		return fmt.Errorf("failed to open preset store: %w", err)
	}
	defer s.Close()

	return fn(a, s)
}

// withCatalog is withStore with built-in presets layered on top.
func withCatalog(cmd *cobra.Command, fn func(a *app, cat *preset.Catalog) error) error {
	return withStore(cmd, func(a *app, s store.PresetStore) error {
		return fn(a, preset.NewCatalog(s))
	})
}

func newPresetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and saved presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(a *app, cat *preset.Catalog) error {
				presets, err := cat.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list presets: %w", err)
				}
				if jsonOutput(cmd) {
					return report.WriteJSON(cmd.OutOrStdout(), map[string]any{
						"presets": presets,
						"count":   len(presets),
					})
				}
				return report.WritePresets(cmd.OutOrStdout(), presets)
			})
		},
	}
}

func newPresetShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a preset's configuration as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(a *app, cat *preset.Catalog) error {
				p, err := cat.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return report.WriteJSON(cmd.OutOrStdout(), p)
				}
				data, err := yaml.Marshal(p)
				if err != nil {
					return fmt.Errorf("encoding preset: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}
}

func newPresetSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save a scenario under a name",
		Long: `Save the scenario built from --preset and the field flags under <name>.
Saving over an existing user preset replaces it; built-ins are read-only.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(a *app, cat *preset.Catalog) error {
				base, _ := cmd.Flags().GetString("preset")
				p, err := cat.Get(cmd.Context(), base)
				if err != nil {
					return err
				}

				cfg := scenarioOverrides(cmd).Apply(p.Config)
				if cmd.Flags().Changed("trials") {
					cfg.TrialCount, _ = cmd.Flags().GetInt("trials")
				}
				description, _ := cmd.Flags().GetString("description")

				saved := preset.Preset{Name: args[0], Description: description, Config: cfg}
				if err := cat.Save(cmd.Context(), saved); err != nil {
					return err
				}
				warnOutsideRanges(a, cfg)

				if jsonOutput(cmd) {
					return report.WriteJSON(cmd.OutOrStdout(), map[string]any{
						"status": "saved",
						"name":   saved.Name,
						"config": cfg,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved preset %s (based on %s)\n", saved.Name, p.Name)
				return nil
			})
		},
	}

	addScenarioFlags(cmd)
	cmd.Flags().Int("trials", 0, "Trial count stored with the preset (default: use config)")
	cmd.Flags().String("description", "", "Short description shown in 'preset list'")

	return cmd
}

func newPresetDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(a *app, cat *preset.Catalog) error {
				if err := cat.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return report.WriteJSON(cmd.OutOrStdout(), map[string]string{
						"status": "deleted",
						"name":   args[0],
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted preset %s\n", args[0])
				return nil
			})
		},
	}
}

func newPresetExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <name> <file>",
		Short: "Write a preset to a YAML file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(a *app, cat *preset.Catalog) error {
				p, err := cat.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := preset.WriteFile(args[1], p); err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return report.WriteJSON(cmd.OutOrStdout(), map[string]string{
						"status": "exported",
						"name":   p.Name,
						"path":   args[1],
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported preset %s to %s\n", p.Name, args[1])
				return nil
			})
		},
	}
}

func newPresetImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Save a preset from a YAML file",
		Long: `Read a preset from a YAML file, validate it and save it. The name comes
from --name, then the file's name field, then the file name itself.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(a *app, cat *preset.Catalog) error {
				p, err := preset.ReadFile(args[0])
				if err != nil {
					return err
				}
				if name, _ := cmd.Flags().GetString("name"); name != "" {
					p.Name = sanitize.PresetName(name)
				}
				if err := cat.Save(cmd.Context(), p); err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return report.WriteJSON(cmd.OutOrStdout(), map[string]string{
						"status": "imported",
						"name":   p.Name,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported preset %s\n", p.Name)
				return nil
			})
		},
	}

	cmd.Flags().String("name", "", "Name to save the preset under")
	return cmd
}

func newPresetBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up all saved presets",
		Long: `Write every saved preset to a checksummed, compressed backup file.
Without --output the file goes to ~/.venturesim/backups/ and only the
newest --keep backups there are retained.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(a *app, s store.PresetStore) error {
				output, _ := cmd.Flags().GetString("output")
				var dir string
				if output == "" {
					var err error
					dir, err = backup.DefaultBackupDir()
					if err != nil {
						return err
					}
					output = backup.GenerateBackupPath(dir)
				}

				header, err := backup.Backup(cmd.Context(), s, output)
				if err != nil {
					return err
				}

				var rotated []string
				if dir != "" {
					keep, _ := cmd.Flags().GetInt("keep")
					if rotated, err = backup.Rotate(dir, keep); err != nil {
						a.logger.Warn("backup rotation failed", "error", err)
					}
				}

				if jsonOutput(cmd) {
					return report.WriteJSON(cmd.OutOrStdout(), map[string]any{
						"status":       "backed_up",
						"path":         output,
						"preset_count": header.PresetCount,
						"checksum":     header.Checksum,
						"rotated":      rotated,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backed up %d presets to %s\n", header.PresetCount, output)
				return nil
			})
		},
	}

	cmd.Flags().String("output", "", "Backup file path (default: timestamped file in ~/.venturesim/backups)")
	cmd.Flags().Int("keep", 10, "Backups to retain in the default directory (0 keeps all)")
	return cmd
}

func newPresetRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore [file]",
		Short: "Restore saved presets from a backup",
		Long: `Restore presets from a backup file, or from the newest backup in
~/.venturesim/backups/ when no file is given. Existing presets are kept
unless --replace is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				dir, err := backup.DefaultBackupDir()
				if err != nil {
					return err
				}
				backups, err := backup.ListBackups(dir)
				if err != nil {
					return err
				}
				if len(backups) == 0 {
					return fmt.Errorf("no backups found in %s", dir)
				}
				path = backups[0].Path
			}

			mode := backup.RestoreMerge
			if replace, _ := cmd.Flags().GetBool("replace"); replace {
				mode = backup.RestoreReplace
			}

			return withStore(cmd, func(a *app, s store.PresetStore) error {
				result, err := backup.Restore(cmd.Context(), s, path, mode)
				if err != nil {
					return err
				}
				for _, name := range result.Invalid {
					a.logger.Warn("skipped invalid preset", "name", name)
				}

				if jsonOutput(cmd) {
					return report.WriteJSON(cmd.OutOrStdout(), result)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %d presets from %s (%d skipped, %d invalid)\n",
					result.Restored, path, result.Skipped, len(result.Invalid))
				return nil
			})
		},
	}

	cmd.Flags().Bool("replace", false, "Delete saved presets before restoring")
	return cmd
}
