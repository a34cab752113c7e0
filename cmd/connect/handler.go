package connect

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gamelift-connect/internal/config"
	"gamelift-connect/internal/fleetaccess"
	"gamelift-connect/internal/logging"
	"gamelift-connect/internal/provision"
	"gamelift-connect/internal/publicip"
)

const usage = "Usage: gamelift-connect {fleet id} {instance id}"

// errUsage is returned before any config is loaded or any request is made.
var errUsage = errors.New(usage)

// requireFleetAndInstance accepts two or more positional arguments; extras are ignored.
func requireFleetAndInstance(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	return nil
}

// NewConnectCommand creates the command that provisions SSH access to one instance
func NewConnectCommand(verbose *bool, configPath *string) *cobra.Command {
	var (
		region           string
		profile          string
		keyDir           string
		ipCheckURL       string
		ipCheckTimeoutMs int
		logPath          string
	)

	cmd := &cobra.Command{
		Use:   "gamelift-connect <fleet-id> <instance-id>",
		Short: "Open temporary SSH access to a GameLift fleet instance",
		Long: `Open temporary SSH access to a GameLift fleet instance.

Resolves this machine's public IP, authorizes inbound TCP/22 from that IP on the
fleet, requests temporary credentials for the instance, writes the private key
to {fleet-id}-{instance-id}.pem (mode 0600) and prints the ssh command to run.

The firewall rule and the key file are NOT removed afterwards. The command to
revoke the rule is printed so it can be run once the session is over.`,
		Args: requireFleetAndInstance,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Argument errors print usage and the error; past this point
			// failures are reported once, through the logger.
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return runConnect(
				cmd, *verbose, *configPath,
				args[0], args[1],
				region, profile, keyDir, ipCheckURL, ipCheckTimeoutMs, logPath,
			)
		},
	}

	cmd.Flags().StringVar(&region, "region", "", "AWS region of the fleet (defaults to the SDK's resolution)")
	cmd.Flags().StringVar(&profile, "profile", "", "Shared AWS config profile to use")
	cmd.Flags().StringVar(&keyDir, "key-dir", "", "Directory to write the instance key file (default: current directory)")
	cmd.Flags().StringVar(&ipCheckURL, "ip-check-url", "", "Plain-text service that echoes the caller's public IP")
	cmd.Flags().IntVar(&ipCheckTimeoutMs, "ip-check-timeout", 0, "Public IP lookup timeout in milliseconds (0 = none)")
	cmd.Flags().StringVar(&logPath, "log-path", "", "Also append logs to this file")

	return cmd
}

func runConnect(
	cmd *cobra.Command, verbose bool, configPath string,
	fleetID, instanceID string,
	region, profile, keyDir, ipCheckURL string, ipCheckTimeoutMs int, logPath string,
) error {
	flagOverrides := map[string]interface{}{
		"region":           region,
		"profile":          profile,
		"keyDir":           keyDir,
		"ipCheckUrl":       ipCheckURL,
		"ipCheckTimeoutMs": ipCheckTimeoutMs,
		"logPath":          logPath,
	}

	cfg, err := config.LoadWithOverrides(configPath, flagOverrides)
	if err != nil {
		logger := logrus.New()
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		}
		logger.WithError(err).Error("Failed to load configuration")
		return err
	}

	logger := logging.SetupLoggerFromConfig(verbose, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.WithFields(logrus.Fields{
		"fleet_id":    fleetID,
		"instance_id": instanceID,
		"region":      cfg.Region,
		"profile":     cfg.Profile,
		"key_dir":     cfg.KeyDir,
		"ip_check":    cfg.IPCheckURL,
	}).Debug("Starting GameLift connect")

	fleet, err := fleetaccess.NewFromEnvironment(ctx, cfg.Region, cfg.Profile, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize GameLift client")
		return err
	}

	runner := &provision.Runner{
		Resolver: publicip.New(cfg.IPCheckURL, time.Duration(cfg.IPCheckTimeoutMs)*time.Millisecond, logger),
		Fleet:    fleet,
		KeyDir:   cfg.KeyDir,
		Region:   cfg.Region,
		Profile:  cfg.Profile,
		Out:      cmd.OutOrStdout(),
		Logger:   logger,
	}

	if _, err := runner.Run(ctx, fleetID, instanceID); err != nil {
		entry := logger.WithError(err).WithFields(logrus.Fields{
			"fleet_id":    fleetID,
			"instance_id": instanceID,
		})
		if code := fleetaccess.APIErrorCode(err); code != "" {
			entry = entry.WithField("api_error_code", code)
		}
		entry.Error("Failed to provision instance access")
		return err
	}

	return nil
}
