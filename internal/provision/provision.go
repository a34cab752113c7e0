package provision

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"gamelift-connect/internal/fleetaccess"
	"gamelift-connect/internal/keyfile"
)

// IPResolver returns the caller's public IPv4 address.
type IPResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// FleetAccess opens the fleet firewall and issues instance credentials.
type FleetAccess interface {
	AuthorizeSSH(ctx context.Context, fleetID, ip string) (fleetaccess.Permission, error)
	GetInstanceAccess(ctx context.Context, fleetID, instanceID string) (*fleetaccess.InstanceAccess, error)
}

// Runner executes the resolve → authorize → issue → write sequence once.
// Nothing is rolled back on failure: a rule opened before a later step fails stays open.
type Runner struct {
	Resolver IPResolver
	Fleet    FleetAccess
	KeyDir   string
	Region   string
	Profile  string
	Out      io.Writer
	Logger   *logrus.Logger
}

// Result describes what a successful run left behind.
type Result struct {
	PublicIP          string
	Permission        fleetaccess.Permission
	Access            *fleetaccess.InstanceAccess
	KeyPath           string
	SSHCommand        string
	RevocationCommand string
}

// SSHCommand renders the command the operator runs to reach the instance.
func SSHCommand(keyPath, userName, instanceIP string) string {
	return fmt.Sprintf("ssh -i %s %s@%s", keyPath, userName, instanceIP)
}

func (r *Runner) Run(ctx context.Context, fleetID, instanceID string) (*Result, error) {
	log := r.Logger.WithFields(logrus.Fields{
		"fleet_id":    fleetID,
		"instance_id": instanceID,
	})

	ip, err := r.Resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve public IP: %w", err)
	}

	fmt.Fprintf(r.Out, "Opening ssh on %s:%s for connection from %s ...\n", fleetID, instanceID, ip)

	perm, err := r.Fleet.AuthorizeSSH(ctx, fleetID, ip)
	if err != nil {
		return nil, err
	}
	log.WithField("ip_range", perm.IPRange).Info("🔓 Inbound SSH authorized on fleet")

	revoke := fleetaccess.RevocationCommand(fleetID, perm, r.Region, r.Profile)
	fmt.Fprintf(r.Out, "\n**IMPORTANT** When finished, please run `%s`\n\n", revoke)

	fmt.Fprintln(r.Out, "Getting instance access ...")
	access, err := r.Fleet.GetInstanceAccess(ctx, fleetID, instanceID)
	if err != nil {
		return nil, err
	}

	keyPath, err := keyfile.Write(r.KeyDir, fleetID, instanceID, access.Secret)
	if err != nil {
		return nil, err
	}

	if fp, err := keyfile.Fingerprint(access.Secret); err != nil {
		log.WithError(err).Warn("Instance secret is not a parseable private key")
	} else {
		log.WithFields(logrus.Fields{
			"key_path":    keyPath,
			"fingerprint": fp,
		}).Debug("Wrote instance key")
	}

	sshCmd := SSHCommand(keyPath, access.UserName, access.IPAddress)
	fmt.Fprintf(r.Out, "`%s`\n", sshCmd)

	return &Result{
		PublicIP:          ip,
		Permission:        perm,
		Access:            access,
		KeyPath:           keyPath,
		SSHCommand:        sshCmd,
		RevocationCommand: revoke,
	}, nil
}
