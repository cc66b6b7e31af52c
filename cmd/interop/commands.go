package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/interop-runtime/session"
)

var (
	evalFile  string
	evalPrint []string
	allObjs   bool
)

var evalCmd = &cobra.Command{
	Use:   "eval [code]",
	Short: "Evaluate script code",
	Long: `Evaluates script code given as an argument or read from a file, then
prints the listed variables.

Example:
  interop eval 'addrect; n = getnamednumber("rectangle");' --print n`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := evalSource(args)
		if err != nil {
			return err
		}
		return withSession(cmd, func(ctx context.Context, s *session.Session) error {
			if err := s.Eval(ctx, code); err != nil {
				return err
			}
			for _, name := range evalPrint {
				if err := printVar(ctx, s, name); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var getCmd = &cobra.Command{
	Use:   "get <name>...",
	Short: "Print workspace variables as YAML",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session.Session) error {
			for _, name := range args {
				if err := printVar(ctx, s, name); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var putCmd = &cobra.Command{
	Use:   "put <name> <yaml>",
	Short: "Store a YAML value as a workspace variable and read it back",
	Long: `Parses a YAML value, stores it under name and prints what the
application holds afterwards. Mappings keep their key order, numeric
sequences become matrices.

Example:
  interop put m '[[1, 2], [3, 4]]'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := parseValue(args[1])
		if err != nil {
			return err
		}
		return withSession(cmd, func(ctx context.Context, s *session.Session) error {
			if err := s.PutVar(ctx, args[0], v); err != nil {
				return err
			}
			return printVar(ctx, s, args[0])
		})
	},
}

var objectsCmd = &cobra.Command{
	Use:   "objects [setup-code]",
	Short: "List selected objects",
	Long: `Runs optional setup code, then lists the ids of the selected objects.
With --all every top-level object is selected first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session.Session) error {
			code := strings.Join(args, "")
			if allObjs {
				code += "\nselectall;"
			}
			if code != "" {
				if err := s.Eval(ctx, code); err != nil {
					return err
				}
			}
			objs, err := s.AllSelectedObjects(ctx)
			if err != nil {
				return err
			}
			for _, o := range objs {
				fmt.Fprintln(cmd.OutOrStdout(), o.ID())
			}
			return nil
		})
	},
}

var propsCmd = &cobra.Command{
	Use:   "props <id> [setup-code]",
	Short: "Print the properties of one object",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session.Session) error {
			if len(args) == 2 {
				if err := s.Eval(ctx, args[1]); err != nil {
					return err
				}
			}
			o, err := s.ObjectByID(ctx, args[0])
			if err != nil {
				return err
			}
			out, err := describeObject(ctx, o)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		})
	},
}

func init() {
	evalCmd.Flags().StringVarP(&evalFile, "file", "f", "", "read code from a file")
	evalCmd.Flags().StringSliceVar(&evalPrint, "print", nil, "variables to print afterwards")
	objectsCmd.Flags().BoolVar(&allObjs, "all", false, "select every top-level object")
}

func evalSource(args []string) (string, error) {
	switch {
	case evalFile != "" && len(args) > 0:
		return "", fmt.Errorf("pass code or --file, not both")
	case evalFile != "":
		data, err := os.ReadFile(evalFile)
		if err != nil {
			return "", fmt.Errorf("read script: %w", err)
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	}
	return "", fmt.Errorf("no code given")
}

func printVar(ctx context.Context, s *session.Session, name string) error {
	v, err := s.GetVar(ctx, name)
	if err != nil {
		return err
	}
	out, err := renderValue(v)
	if err != nil {
		return err
	}
	fmt.Printf("%s:\n%s", name, indent(out, "  "))
	return nil
}
