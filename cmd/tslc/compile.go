// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"

	"github.com/ckod3/Tiny-Shading-Language/pkg/compiler"
	tslcontext "github.com/ckod3/Tiny-Shading-Language/pkg/context"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] file.tsl",
	Short: "Compile one shader unit and report its exposed arguments.",
	Long:  "Compile a single Tiny Shading Language source file into a shader unit template and print its exposed argument list.",
	Args:  cobra.ExactArgs(1),
	Run:   runCompileCmd,
}

func runCompileCmd(cmd *cobra.Command, args []string) {
	if GetFlag(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
	}
	//
	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	sc := tslcontext.New(nil)
	defer sc.Dispose()
	//
	cfg := compiler.DefaultConfig()
	cfg.AllowOptimization = !GetFlag(cmd, "no-optimize")
	cfg.AllowVerification = !GetFlag(cmd, "no-verify")
	cfg.VerboseParser = GetFlag(cmd, "verbose")
	//
	tmpl, err := sc.Compile(string(src), args[0], cfg)
	if err != nil {
		reportCompileError(err)
		os.Exit(4)
	}
	//
	fmt.Printf("shader %q: %d exposed argument(s)\n", tmpl.RootFuncName, len(tmpl.Args))
	for _, a := range tmpl.Args {
		fmt.Printf("  %s %s %s\n", a.Direction, a.Type, a.Name)
	}
}

func reportCompileError(err error) {
	switch e := err.(type) {
	case *compiler.CodegenError:
		printSyntaxErrors(e.Errors)
	default:
		fmt.Println(err)
	}
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().Bool("no-optimize", false, "disable the optimization passes when resolving")
	compileCmd.Flags().Bool("no-verify", false, "disable IR verification on resolve")
}
