package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/driftline/sieve/moderation"
	"github.com/driftline/sieve/policy"
	"github.com/driftline/sieve/risk"
	"github.com/driftline/sieve/store"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "sieved",
		Usage:   "content moderation and risk scoring daemon",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Value:   "sqlite://data/sieved/sieve.db",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:    "policy-config",
			Usage:   "path to the sealed policy document",
			Value:   "policy.dat",
			EnvVars: []string{"SIEVE_POLICY_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "policy-key",
			Usage:   "base64 AES-256 key for the sealed policy document",
			EnvVars: []string{"SIEVE_POLICY_KEY"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
			Value:   40,
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
		sealPolicyCmd,
		topRiskyCmd,
	}

	return app.Run(args)
}

// loadPolicy decrypts and compiles the policy document. Failure here is
// fatal: nothing moderation-dependent can run without a policy.
func loadPolicy(cctx *cli.Context) (*policy.Store, error) {
	key, err := policy.ParseKey(cctx.String("policy-key"))
	if err != nil {
		return nil, err
	}
	return policy.LoadSealedFile(cctx.String("policy-config"), key)
}

func openStore(cctx *cli.Context, logger *slog.Logger) (*store.Store, error) {
	db, err := store.SetupDatabase(cctx.String("database-url"), cctx.Int("max-db-connections"))
	if err != nil {
		return nil, err
	}
	return store.NewStore(db, logger)
}

var sealPolicyCmd = &cli.Command{
	Name:  "seal-policy",
	Usage: "encrypt a plaintext policy JSON document for use with run",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "input",
			Usage:    "path to plaintext policy JSON",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "output",
			Value: "policy.dat",
		},
	},
	Action: func(cctx *cli.Context) error {
		key, err := policy.ParseKey(cctx.String("policy-key"))
		if err != nil {
			return err
		}
		plain, err := os.ReadFile(cctx.String("input"))
		if err != nil {
			return err
		}
		// validate before sealing, so a bad document fails here and not
		// at daemon startup
		var cfg policy.Config
		if err := json.Unmarshal(plain, &cfg); err != nil {
			return fmt.Errorf("parsing policy config: %w", err)
		}
		if _, err := policy.Compile(cfg); err != nil {
			return err
		}
		sealed, err := policy.Seal(plain, key)
		if err != nil {
			return err
		}
		return os.WriteFile(cctx.String("output"), sealed, 0600)
	},
}

var topRiskyCmd = &cli.Command{
	Name:  "top-risky",
	Usage: "rank users by risk score and print the top N",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "limit",
			Value: 5,
		},
	},
	Action: func(cctx *cli.Context) error {
		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))
		slog.SetDefault(logger)

		pol, err := loadPolicy(cctx)
		if err != nil {
			return err
		}
		st, err := openStore(cctx, logger)
		if err != nil {
			return err
		}
		assessor := risk.NewAssessor(st, moderation.NewModerator(pol))
		ranked, err := assessor.TopRisky(cctx.Context, cctx.Int("limit"))
		if err != nil {
			return err
		}
		for i, ur := range ranked {
			fmt.Printf("%d. %s (id=%d) score=%.2f %s\n", i+1, ur.User.Username, ur.User.ID, ur.Score, ur.Label)
		}
		return nil
	},
}
