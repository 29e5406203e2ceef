// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ckod3/Tiny-Shading-Language/pkg/ast"
	"github.com/ckod3/Tiny-Shading-Language/pkg/compiler"
	tslcontext "github.com/ckod3/Tiny-Shading-Language/pkg/context"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] file.tsl [input...]",
	Short: "Compile, JIT and invoke one shader unit for smoke-testing.",
	Long: "Compile a single Tiny Shading Language source file, resolve it into a JIT instance " +
		"and invoke it once, feeding the given float literals to its in arguments in declaration order.",
	Args: cobra.MinimumNArgs(1),
	Run:  runRunCmd,
}

func runRunCmd(cmd *cobra.Command, args []string) {
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
	ins := make([]float32, 0, len(args)-1)
	for _, a := range args[1:] {
		v, err := strconv.ParseFloat(a, 32)
		if err != nil {
			fmt.Printf("malformed input %q: %s\n", a, err)
			os.Exit(2)
		}
		ins = append(ins, float32(v))
	}
	//
	sc := tslcontext.New(nil)
	defer sc.Dispose()
	//
	cfg := compiler.DefaultConfig()
	cfg.AllowOptimization = !GetFlag(cmd, "no-optimize")
	cfg.AllowVerification = !GetFlag(cmd, "no-verify")
	//
	tmpl, err := sc.Compile(string(src), args[0], cfg)
	if err != nil {
		reportCompileError(err)
		os.Exit(4)
	}
	//
	inst, err := sc.ResolveTemplate(tmpl)
	if err != nil {
		fmt.Println(err)
		os.Exit(4)
	}
	defer inst.Dispose()
	//
	outs, err := inst.InvokeFloats(ins)
	if err != nil {
		fmt.Println(err)
		os.Exit(4)
	}
	//
	outIdx := 0
	for _, a := range inst.Args {
		if a.Direction != ast.DirOut {
			continue
		}
		fmt.Printf("%s = %g\n", a.Name, outs[outIdx])
		outIdx++
	}
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("no-optimize", false, "disable the optimization passes when resolving")
	runCmd.Flags().Bool("no-verify", false, "disable IR verification on resolve")
}
