package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/cfdkit/internal/ccl"
	"github.com/msto63/cfdkit/internal/cclstore"
	"github.com/msto63/cfdkit/foundation/utils/filex"
	"github.com/msto63/cfdkit/pkg/core/logging"
)

var convertOut string

var convertCmd = &cobra.Command{
	Use:   "convert <file.ccl|file.def|file.cfx|file.res>",
	Short: "Build a store from CCL text or a CFX file",
	Long: `Parses CCL text into a hierarchical store. CFX solver, case and result
files are converted to CCL text with the configured CFX installation first.

Ambiguous constructs are reported as warnings; with ccl.strict set the first
ambiguity aborts the conversion.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "", "store file (default: input with the store suffix)")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	input := args[0]

	if convertOut == "" {
		f, err := openFile(ctx, input)
		if err != nil {
			return err
		}
		defer f.Close()
		return printStats(cmd, f.Store())
	}

	text := input
	if !filex.HasSuffix(input, ".ccl") {
		tools, err := newTools()
		if err != nil {
			return err
		}
		if text, err = tools.GenerateCCL(ctx, input); err != nil {
			return err
		}
	}
	doc, err := ccl.ParseFile(text, ccl.BuildOptions{Step: appConfig.CCL.IndentStep, Strict: appConfig.CCL.Strict})
	if err != nil {
		return err
	}
	log := logging.New("convert")
	for _, a := range doc.Ambiguities {
		log.Warn("Ambiguous CCL structure", "line", a.Line, "reason", a.Reason, "text", a.Text)
	}
	if _, err := cclstore.Build(ctx, doc, convertOut, cclstore.BuildOptions{
		Step:   appConfig.CCL.IndentStep,
		Source: input,
		Logger: logging.New("cclstore"),
	}); err != nil {
		return err
	}

	st, err := cclstore.Open(cclstore.Config{Path: convertOut})
	if err != nil {
		return err
	}
	defer st.Close()
	return printStats(cmd, st)
}

func printStats(cmd *cobra.Command, st *cclstore.Store) error {
	stats, err := st.Statistics(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", titleStyle.Render("store"), st.Path())
	fmt.Fprintf(cmd.OutOrStdout(), "  %s %v\n", keyStyle.Render("nodes:     "), stats["nodes"])
	fmt.Fprintf(cmd.OutOrStdout(), "  %s %v\n", keyStyle.Render("attributes:"), stats["attributes"])
	return nil
}
