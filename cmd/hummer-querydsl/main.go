/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	hummer "github.com/tomoncle/hummer-querydsl"
	"github.com/tomoncle/hummer-querydsl/config"
	"github.com/tomoncle/hummer-querydsl/database"
	"github.com/tomoncle/hummer-querydsl/model"
	"github.com/tomoncle/hummer-querydsl/types"
	"github.com/tomoncle/hummer-querydsl/utils"
)

// log is created after the console format is configured.
var log *utils.Logger

type searchFlags struct {
	username string
	team     string
	ageGoe   int
	ageLoe   int
	offset   int
	limit    int
	sort     []string
	simple   bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var configPath string
	var appCfg *config.AppConfig

	root := &cobra.Command{
		Use:           "hummer-querydsl",
		Short:         "Member/team search over Bun with dynamic predicates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			// stdout carries the JSON result
			utils.ConfigureConsoleOutput(cmd.ErrOrStderr())
			utils.ConfigureLogLevel(cfg.Log.Level)
			utils.ConfigureConsoleLogFormat(cfg.Log.Format)
			log = utils.NewLogger("CLI")
			appCfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (yaml)")

	connect := func() error {
		if _, err := database.InitDB(&appCfg.Database); err != nil {
			return err
		}
		return nil
	}

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := connect(); err != nil {
				return err
			}
			defer database.CloseDB()
			if err := database.RunMigrations(cmd.Context()); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	})

	var fixtures string
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert fixture rows from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := connect(); err != nil {
				return err
			}
			defer database.CloseDB()
			if err := database.InitDataWithFile(cmd.Context(), fixtures); err != nil {
				return err
			}
			log.WithField("file", fixtures).Info("fixtures seeded")
			return nil
		},
	}
	seedCmd.Flags().StringVarP(&fixtures, "file", "f", "configs/fixtures.yaml", "fixtures file")
	root.AddCommand(seedCmd)

	sf := &searchFlags{}
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search members and print one page as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cond := model.SearchCondition{Username: sf.username, TeamName: sf.team}
			if cmd.Flags().Changed("age-goe") {
				cond.AgeGoe = model.IntPtr(sf.ageGoe)
			}
			if cmd.Flags().Changed("age-loe") {
				cond.AgeLoe = model.IntPtr(sf.ageLoe)
			}
			orders := make([]types.Order, 0, len(sf.sort))
			for _, s := range sf.sort {
				o, err := model.ParseOrder(s)
				if err != nil {
					return err
				}
				orders = append(orders, o)
			}
			req := types.NewPageRequest(sf.offset, sf.limit, orders...)

			if err := connect(); err != nil {
				return err
			}
			defer database.CloseDB()

			svc := hummer.NewMemberService()
			var (
				page *types.Page[model.MemberTeamDto]
				err  error
			)
			if sf.simple {
				page, err = svc.SearchPageSimple(cmd.Context(), cond, req)
			} else {
				page, err = svc.SearchPageComplex(cmd.Context(), cond, req)
			}
			if err != nil {
				return err
			}
			return writeJSON(out, page)
		},
	}
	fl := searchCmd.Flags()
	fl.StringVar(&sf.username, "username", "", "exact username")
	fl.StringVar(&sf.team, "team", "", "exact team name")
	fl.IntVar(&sf.ageGoe, "age-goe", 0, "minimum age, inclusive")
	fl.IntVar(&sf.ageLoe, "age-loe", 0, "maximum age, inclusive")
	fl.IntVar(&sf.offset, "offset", 0, "rows to skip")
	fl.IntVar(&sf.limit, "limit", 10, "page size")
	fl.StringSliceVar(&sf.sort, "sort", nil, "sort key field[:asc|desc], repeatable")
	fl.BoolVar(&sf.simple, "simple", false, "always run the count query first")
	root.AddCommand(searchCmd)

	root.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Ping the database and print pool statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := connect(); err != nil {
				return err
			}
			defer database.CloseDB()
			status := database.GetHealthStatus(cmd.Context())
			if !status.Healthy {
				log.WithField("error", status.LastError).Warn("database unhealthy")
			}
			return writeJSON(out, map[string]interface{}{
				"status": status,
				"stats":  database.GetDatabaseStats(),
			})
		},
	})

	return root
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
