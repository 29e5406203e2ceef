// SPDX-License-Identifier: Apache-2.0
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ckod3/Tiny-Shading-Language/pkg/ast"
	"github.com/ckod3/Tiny-Shading-Language/pkg/compiler"
	tslcontext "github.com/ckod3/Tiny-Shading-Language/pkg/context"
	"github.com/ckod3/Tiny-Shading-Language/pkg/group"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// groupFile is the on-disk JSON description of a ShaderGroupTemplate: unit
// instances naming the .tsl source that implements them, the connections
// wiring their arguments together, the group's own exposed inputs/outputs,
// per-argument default literals, and the traversal root.
type groupFile struct {
	Name        string            `json:"name"`
	Units       map[string]string `json:"units"`
	Connections []connectionSpec  `json:"connections"`
	Inputs      []exposureSpec    `json:"exposed_inputs"`
	Outputs     []exposureSpec    `json:"exposed_outputs"`
	Defaults    []defaultSpec     `json:"defaults"`
	Root        string            `json:"root"`
}

type connectionSpec struct {
	SrcInst string `json:"src_inst"`
	SrcArg  string `json:"src_arg"`
	DstInst string `json:"dst_inst"`
	DstArg  string `json:"dst_arg"`
}

type exposureSpec struct {
	Inst  string `json:"inst"`
	Arg   string `json:"arg"`
	Index int    `json:"index"`
}

type defaultSpec struct {
	Inst  string    `json:"inst"`
	Arg   string    `json:"arg"`
	Type  string    `json:"type"`
	Int   int64     `json:"int,omitempty"`
	Float float64   `json:"float,omitempty"`
	Bool  bool      `json:"bool,omitempty"`
	Vec   []float64 `json:"vector,omitempty"`
}

func (d defaultSpec) value() (ast.Value, error) {
	t, ok := ast.ParseBaseType(d.Type)
	if !ok {
		return ast.Value{}, fmt.Errorf("unknown default type %q for %s.%s", d.Type, d.Inst, d.Arg)
	}
	switch t {
	case ast.TypeInt:
		return ast.IntValue(d.Int), nil
	case ast.TypeFloat:
		return ast.FloatValue(d.Float), nil
	case ast.TypeDouble:
		return ast.DoubleValue(d.Float), nil
	case ast.TypeBool:
		return ast.BoolValue(d.Bool), nil
	case ast.TypeFloat3:
		return ast.Float3Value(at(d.Vec, 0), at(d.Vec, 1), at(d.Vec, 2)), nil
	case ast.TypeFloat4:
		return ast.Float4Value(at(d.Vec, 0), at(d.Vec, 1), at(d.Vec, 2), at(d.Vec, 3)), nil
	default:
		return ast.Value{}, fmt.Errorf("type %q cannot have a literal default", d.Type)
	}
}

func at(v []float64, i int) float64 {
	if i < len(v) {
		return v[i]
	}
	return 0
}

var groupCmd = &cobra.Command{
	Use:   "group [flags] group.json",
	Short: "Compile every unit named in a group definition and link them.",
	Long:  "Compile each shader unit referenced by a group definition file, then link them into a single wrapper function.",
	Args:  cobra.ExactArgs(1),
	Run:   runGroupCmd,
}

func runGroupCmd(cmd *cobra.Command, args []string) {
	if GetFlag(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
	}
	//
	raw, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	var gf groupFile
	if err := json.Unmarshal(raw, &gf); err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	sc := tslcontext.New(nil)
	defer sc.Dispose()
	//
	gt := sc.CreateGroupTemplate(gf.Name)
	cfg := compiler.DefaultConfig()
	//
	for inst, path := range gf.Units {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		tmpl, err := sc.Compile(string(src), inst, cfg)
		if err != nil {
			reportCompileError(err)
			os.Exit(4)
		}
		gt.AddUnit(inst, tmpl)
	}
	//
	for _, c := range gf.Connections {
		if err := gt.Connect(c.SrcInst, c.SrcArg, c.DstInst, c.DstArg); err != nil {
			fmt.Println(err)
			os.Exit(5)
		}
	}
	for _, e := range gf.Inputs {
		if err := gt.ExposeInput(e.Inst, e.Arg, e.Index); err != nil {
			fmt.Println(err)
			os.Exit(5)
		}
	}
	for _, e := range gf.Outputs {
		if err := gt.ExposeOutput(e.Inst, e.Arg, e.Index); err != nil {
			fmt.Println(err)
			os.Exit(5)
		}
	}
	for _, d := range gf.Defaults {
		v, err := d.value()
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		if err := gt.SetDefault(d.Inst, d.Arg, v); err != nil {
			fmt.Println(err)
			os.Exit(5)
		}
	}
	gt.SetRoot(gf.Root)
	//
	linker := group.NewResolver(log.StandardLogger())
	if err := linker.Resolve(gt); err != nil {
		fmt.Println(err)
		os.Exit(5)
	}
	defer gt.Dispose()
	//
	fmt.Printf("group %q linked: wrapper %q, %d exposed argument(s)\n", gf.Name, gt.WrapperName, len(gt.Args))
	for _, a := range gt.Args {
		fmt.Printf("  %s %s %s\n", a.Direction, a.Type, a.Name)
	}
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(groupCmd)
}
