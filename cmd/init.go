package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"billing/internal/billing"
	"billing/internal/config"
	"billing/internal/dispatch"
	"billing/internal/logger"
	"billing/internal/storage"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a workspace",
	Long: `Create the settings file, the mail templates and the directory structure of a
workspace. Existing files are left untouched.`,
	Example:     `  billing init --dir ~/billing`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipWorkspace: ""},
	RunE:        runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("init")
	out := cmd.OutOrStdout()

	result, err := config.Init(workDir)
	if err != nil {
		return err
	}
	if result.ConfigWritten {
		fmt.Fprintf(out, "Created %s\n", config.FileName)
	}
	for _, dir := range result.Dirs {
		fmt.Fprintf(out, "Created %s/\n", filepath.Base(dir))
	}

	templates := map[string]string{
		"invoice_mail.txt":  dispatch.DefaultTemplate,
		"contract_mail.txt": billing.DefaultContractTemplate,
	}
	for name, body := range templates {
		path := filepath.Join(workDir, config.TemplatesDirName, name)
		if storage.Exists(path) {
			continue
		}
		if err := storage.WriteFile(path, []byte(body)); err != nil {
			return fmt.Errorf("failed to write template %s: %w", name, err)
		}
		fmt.Fprintf(out, "Created %s/%s\n", config.TemplatesDirName, name)
	}

	log.Info().Str("dir", workDir).Msg("Workspace initialized")
	return nil
}
