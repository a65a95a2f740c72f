package cli

import (
	"context"
	"log"

	"flashmind-student/internal/config"
	"flashmind-student/internal/domain"
	"flashmind-student/internal/infra/memory"
	"flashmind-student/internal/infra/postgres"
	"github.com/spf13/cobra"
)

// NewImportCmd loads a YAML question bank into Postgres.
func NewImportCmd(configPath *string) *cobra.Command {
	var bankFile string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a YAML question bank into Postgres",
		Long:  "Import a YAML question bank into Postgres. Without --file the bundled React.js bank is imported.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), *configPath, bankFile)
		},
	}
	cmd.Flags().StringVar(&bankFile, "file", "", "path to the YAML question bank (defaults to quiz.bankFile)")
	return cmd
}

func runImport(ctx context.Context, configPath, bankFile string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if bankFile == "" {
		bankFile = cfg.Quiz.BankFile
	}
	quizzes, err := loadBank(bankFile)
	if err != nil {
		return err
	}

	db, err := openBun(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := migrateDB(ctx, db); err != nil {
		return err
	}

	n, err := postgres.ImportQuizzes(ctx, db, quizzes)
	if err != nil {
		return err
	}
	log.Printf("imported %d quizzes", n)
	return nil
}

func loadBank(path string) ([]domain.Quiz, error) {
	if path == "" {
		return memory.BuiltinBank()
	}
	return memory.LoadBankFile(path)
}
