package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"newsdesk/internal/config"
	"newsdesk/internal/db"
	"newsdesk/internal/engine"
	"newsdesk/internal/migrate"
	"newsdesk/internal/policy"
	"newsdesk/internal/repo"
	"newsdesk/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "nd",
	Short: "Newsdesk CLI",
	Long: `Newsdesk runs an editorial workflow for articles.
Concepts:
- Workspace: your .newsdesk directory holding the database; newsdesk.yml configures the server.
- Articles: content items moving draft -> review -> published, each owned by its creator.
- Roles: reader, reporter, reviewer, editor; admin is an editor with account administration.
- Policies: every operation runs a chain of checks (role, ownership, workflow) and the
  first failure wins; service API keys bypass the chain entirely.
- Event log: diary of workflow changes and every authorization decision, view with 'nd log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initViper)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initViper() {
	viper.SetEnvPrefix("NEWSDESK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("role", "", "act with this role instead of the stored assignment")
	rootCmd.PersistentFlags().Bool("service", false, "act as a trusted service credential")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("role", rootCmd.PersistentFlags().Lookup("role"))
	_ = viper.BindPFlag("service", rootCmd.PersistentFlags().Lookup("service"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(articleCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
}

func initCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil {
				fmt.Printf("config %s already exists\n", path)
				return nil
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(projectID)), 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "id", "newsdesk", "project id")
	return cmd
}

func articleCmd() *cobra.Command {
	art := &cobra.Command{Use: "article", Short: "Manage articles"}
	art.AddCommand(articleCreateCmd())
	art.AddCommand(articleListCmd())
	art.AddCommand(articleShowCmd())
	art.AddCommand(articleUpdateCmd())
	art.AddCommand(articleDeleteCmd())
	art.AddCommand(articleSubmitCmd())
	art.AddCommand(articleApproveCmd())
	art.AddCommand(articleRejectCmd())
	art.AddCommand(articlePublishCmd())
	art.AddCommand(articleUnpublishCmd())
	return art
}

func articleCreateCmd() *cobra.Command {
	var opts engine.ArticleCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create article",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Title == "" {
				return fmt.Errorf("--title required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cred, err := credential(ctx, e)
				if err != nil {
					return err
				}
				a, err := e.CreateArticle(ctx, cred, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "article id (generated when empty)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "title")
	cmd.Flags().StringVar(&opts.Slug, "slug", "", "url slug")
	cmd.Flags().StringVar(&opts.Body, "body", "", "body text")
	cmd.Flags().StringVar(&opts.Status, "status", "", "initial status (draft, review, published)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func articleListCmd() *cobra.Command {
	var status, creatorID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cred, err := credential(ctx, e)
				if err != nil {
					return err
				}
				articles, err := e.ListArticles(ctx, cred, status, creatorID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(articles)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Creator", "Published At"})
				for _, a := range articles {
					published := ""
					if a.PublishedAt != nil {
						published = *a.PublishedAt
					}
					tw.AppendRow(table.Row{a.ID, a.Title, a.WorkflowStatus, a.CreatorID, published})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().StringVar(&creatorID, "creator-id", "", "creator filter")
	return cmd
}

func articleShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cred, err := credential(ctx, e)
				if err != nil {
					return err
				}
				a, err := e.GetArticle(ctx, cred, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	return cmd
}

func articleUpdateCmd() *cobra.Command {
	var title, slug, body, status string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cred, err := credential(ctx, e)
				if err != nil {
					return err
				}
				opts := engine.ArticleUpdateOptions{ID: args[0], Status: status}
				if cmd.Flags().Changed("title") {
					opts.Title = &title
				}
				if cmd.Flags().Changed("slug") {
					opts.Slug = &slug
				}
				if cmd.Flags().Changed("body") {
					opts.Body = &body
				}
				a, err := e.UpdateArticle(ctx, cred, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&slug, "slug", "", "url slug")
	cmd.Flags().StringVar(&body, "body", "", "body text")
	cmd.Flags().StringVar(&status, "status", "", "target status (draft, review, published)")
	return cmd
}

func articleDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cred, err := credential(ctx, e)
				if err != nil {
					return err
				}
				if err := e.DeleteArticle(ctx, cred, args[0]); err != nil {
					return err
				}
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
	return cmd
}

func articleSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <id>",
		Short: "Submit an article for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cred, err := credential(ctx, e)
				if err != nil {
					return err
				}
				a, err := e.SubmitForReview(ctx, cred, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	return cmd
}

func articleApproveCmd() *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve an article in review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cred, err := credential(ctx, e)
				if err != nil {
					return err
				}
				a, err := e.Approve(ctx, cred, args[0], notes)
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "review notes")
	return cmd
}

func articleRejectCmd() *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject an article back to draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cred, err := credential(ctx, e)
				if err != nil {
					return err
				}
				a, err := e.Reject(ctx, cred, args[0], notes)
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "review notes")
	return cmd
}

func articlePublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <id>",
		Short: "Publish an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cred, err := credential(ctx, e)
				if err != nil {
					return err
				}
				a, err := e.Publish(ctx, cred, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	return cmd
}

func articleUnpublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unpublish <id>",
		Short: "Unpublish an article back to draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cred, err := credential(ctx, e)
				if err != nil {
					return err
				}
				a, err := e.Unpublish(ctx, cred, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	return cmd
}

func userCmd() *cobra.Command {
	usr := &cobra.Command{Use: "user", Short: "Manage users"}
	usr.AddCommand(userSetRoleCmd())
	usr.AddCommand(userShowCmd())
	usr.AddCommand(userWhoamiCmd())
	return usr
}

func userSetRoleCmd() *cobra.Command {
	var roleType, roleName string
	cmd := &cobra.Command{
		Use:   "set-role <id>",
		Short: "Assign a role to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			resolved, err := cfg.ResolveRole(roleType, roleName)
			if err != nil {
				return err
			}
			if resolved == "" {
				return fmt.Errorf("--type (or a --name bound in newsdesk.yml) required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				u, err := e.SetUserRole(ctx, args[0], resolved, roleName)
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	cmd.Flags().StringVar(&roleType, "type", "", "role type (reader, reporter, reviewer, editor, admin)")
	cmd.Flags().StringVar(&roleName, "name", "", "role display name (resolved against newsdesk.yml bindings)")
	return cmd
}

func userShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				u, err := r.GetUser(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	return cmd
}

func userWhoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current actor's role and capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cred, err := credential(ctx, e)
				if err != nil {
					return err
				}
				caps := []string{}
				for _, c := range policy.Capabilities(cred.Principal.Role) {
					caps = append(caps, string(c))
				}
				return printJSONOrTable(map[string]any{
					"actor_id":     cred.Principal.ID,
					"role":         string(cred.Principal.Role),
					"trusted":      cred.Trusted(),
					"capabilities": caps,
				})
			})
		},
	}
	return cmd
}

func apikeyCmd() *cobra.Command {
	key := &cobra.Command{Use: "apikey", Short: "Manage service API keys"}
	key.AddCommand(apikeyCreateCmd())
	key.AddCommand(apikeyListCmd())
	key.AddCommand(apikeyRevokeCmd())
	return key
}

func apikeyCreateCmd() *cobra.Command {
	var actorID, name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if actorID == "" {
				return fmt.Errorf("--actor required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				raw := fmt.Sprintf("ndk_%s", uuid.New().String())
				key, err := e.CreateAPIKey(ctx, actorID, name, raw)
				if err != nil {
					return err
				}
				// The raw key is shown exactly once; only its hash is stored.
				return printJSONOrTable(map[string]any{
					"id":       key.ID,
					"actor_id": key.ActorID,
					"name":     key.Name,
					"key":      raw,
				})
			})
		},
	}
	cmd.Flags().StringVar(&actorID, "actor", "", "service actor id")
	cmd.Flags().StringVar(&name, "name", "", "key name")
	return cmd
}

func apikeyListCmd() *cobra.Command {
	var actorID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				keys, err := r.ListAPIKeys(ctx, actorID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Actor", "Name", "Created At"})
				for _, k := range keys {
					tw.AppendRow(table.Row{k.ID, k.ActorID, k.Name, k.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&actorID, "actor", "", "filter by actor id")
	return cmd
}

func apikeyRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if err := r.DeleteAPIKey(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("revoked", args[0])
				return nil
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "The diary of everything that happened: workflow changes and authorization decisions.",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				events, err := r.ListEvents(ctx, n)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			appCfg, err := config.LoadOptional(workspace)
			if err != nil {
				return err
			}
			e := engine.New(conn)
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("NEWSDESK_JWT_SECRET")}
			if appCfg != nil {
				if authCfg.JWTSecret == "" {
					authCfg.JWTSecret = appCfg.Auth.JWTSecret
				}
				authCfg.AllowLegacyActorHeader = appCfg.Auth.LegacyActorHeader
				if addr == "" {
					addr = appCfg.Server.Listen
				}
				if basePath == "" {
					basePath = appCfg.Server.BasePath
				}
			}
			if addr == "" {
				addr = "127.0.0.1:8484"
			}
			if authCfg.JWTSecret == "" && !authCfg.AllowLegacyActorHeader {
				return fmt.Errorf("NEWSDESK_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: e, App: appCfg, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Newsdesk API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, engine.New(conn))
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func credential(ctx context.Context, e engine.Engine) (policy.Credential, error) {
	actorID := viper.GetString("actor-id")
	if viper.GetBool("service") {
		return engine.ServiceCredential(actorID), nil
	}
	if role := viper.GetString("role"); role != "" {
		return policy.Credential{
			Kind:      policy.CredentialUser,
			Principal: policy.NewPrincipal(actorID, role, ""),
		}, nil
	}
	return e.UserCredential(ctx, actorID)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
