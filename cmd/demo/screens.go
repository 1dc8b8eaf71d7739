package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matst80/slask-instant/pkg/config"
	"github.com/matst80/slask-instant/pkg/demo"
	"github.com/matst80/slask-instant/pkg/index"
	"github.com/matst80/slask-instant/pkg/remote"
	"github.com/matst80/slask-instant/pkg/server"
	"github.com/matst80/slask-instant/pkg/tracking"
	"github.com/matst80/slask-instant/pkg/types"
	"github.com/spf13/cobra"
)

var (
	remoteUrl   string
	remoteKey   string
	backend     string
	fromStdin   bool
	hitsPerPage int
	track       bool
	guideStep   int
)

var refinementCmd = &cobra.Command{
	Use:   "refinement [actions...]",
	Short: "Color and category refinement lists with a clear button",
	Long: `Runs the refinement list screen. Actions are applied in order:

  select color red
  select category shoes
  clear`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScreen(cmd, args, func(service types.SearchService, out io.Writer, opts demo.Options) (*demo.Screen, error) {
			return demo.Refinement(service, out, opts)
		})
	},
}

var guideCmd = &cobra.Command{
	Use:   "guide [actions...]",
	Short: "The getting started screen as it looks after a step",
	Long: `Runs the getting started screen. Actions are applied in order:

  type iphone
  submit
  more
  select category Audio`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScreen(cmd, args, func(service types.SearchService, out io.Writer, opts demo.Options) (*demo.Screen, error) {
			return demo.Guide(service, out, guideStep, opts)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{refinementCmd, guideCmd} {
		c.Flags().StringVar(&remoteUrl, "remote", "", "search server base url, local indexes are used when empty")
		c.Flags().StringVar(&remoteKey, "key", "", "api key for the search server")
		c.Flags().StringVar(&backend, "backend", config.BackendMemory, "local index backend (memory or bleve)")
		c.Flags().BoolVar(&fromStdin, "stdin", false, "read actions from stdin, one per line")
		c.Flags().IntVar(&hitsPerPage, "hits-per-page", 0, "hits per page, 0 uses the default")
		c.Flags().BoolVar(&track, "track", false, "log search events")
	}
	guideCmd.Flags().IntVar(&guideStep, "step", 7, "guide step (1-7)")
	rootCmd.AddCommand(refinementCmd, guideCmd)
}

func searchService() (types.SearchService, error) {
	if remoteUrl != "" {
		return remote.NewClient(remoteUrl, remoteKey), nil
	}
	if backend != config.BackendMemory && backend != config.BackendBleve {
		return nil, fmt.Errorf("%w: backend %q", config.ErrInvalidConfig, backend)
	}
	router := index.NewRouter()
	for _, cfg := range config.Default().Indexes {
		cfg.Backend = backend
		idx, err := server.BuildIndex(cfg, nil)
		if err != nil {
			return nil, err
		}
		router.Register(idx.Name, idx.Service)
	}
	return router, nil
}

func readActions(r io.Reader) ([]string, error) {
	actions := []string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, "#") {
			actions = append(actions, line)
		}
	}
	return actions, scanner.Err()
}

type screenBuilder func(service types.SearchService, out io.Writer, opts demo.Options) (*demo.Screen, error)

func runScreen(cmd *cobra.Command, args []string, build screenBuilder) error {
	service, err := searchService()
	if err != nil {
		return err
	}
	actions := args
	if fromStdin {
		lines, err := readActions(os.Stdin)
		if err != nil {
			return err
		}
		actions = append(actions, lines...)
	}

	opts := demo.Options{HitsPerPage: hitsPerPage}
	if track {
		opts.Tracker = tracking.LogTracking{}
	}
	sc, err := build(service, cmd.OutOrStdout(), opts)
	if err != nil {
		return err
	}
	defer sc.Close()
	sc.Run(actions)
	return nil
}
