package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stuartcarnie/genbackend"
	"github.com/stuartcarnie/genbackend/codegen"
)

var methodsCmd = cobra.Command{
	Use:   "methods",
	Short: "Show the dispatch table of the configured service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		methods, err := genbackend.NewRunner(cfg, nil).Methods()
		if err != nil {
			return err
		}
		au := aurora.NewAurora(term.IsTerminal(int(os.Stdout.Fd())))
		printMethods(au, methods, cfg.Receiver)
		return nil
	},
}

func printMethods(au aurora.Aurora, methods []*codegen.Method, receiver string) {
	tw := tabwriter.NewWriter(os.Stdout, 4, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join([]string{"INDEX", "RPC", "METHOD", "RETURNS"}, "\t"))
	for _, m := range methods {
		name := au.Green(m.Name)
		if !m.Unrolled {
			name = au.Yellow(m.Name)
		}
		_, _ = fmt.Fprintln(tw, strings.Join([]string{
			strconv.Itoa(m.Index),
			m.RPC,
			fmt.Sprintf("%s(%s)", name, m.Signature(receiver)),
			m.ReturnType,
		}, "\t"))
	}
	tw.Flush()
}
