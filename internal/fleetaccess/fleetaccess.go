package fleetaccess

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/gamelift"
	gameliftTypes "github.com/aws/aws-sdk-go-v2/service/gamelift/types"
	"github.com/aws/smithy-go"
	"github.com/sirupsen/logrus"
)

const SSHPort = 22

// API is the subset of the GameLift client used here.
type API interface {
	UpdateFleetPortSettings(ctx context.Context, params *gamelift.UpdateFleetPortSettingsInput, optFns ...func(*gamelift.Options)) (*gamelift.UpdateFleetPortSettingsOutput, error)
	GetInstanceAccess(ctx context.Context, params *gamelift.GetInstanceAccessInput, optFns ...func(*gamelift.Options)) (*gamelift.GetInstanceAccessOutput, error)
}

// Permission is an inbound allow-rule on a fleet.
type Permission struct {
	Protocol string
	FromPort int32
	ToPort   int32
	IPRange  string
}

// String renders the permission in the AWS CLI shorthand syntax.
func (p Permission) String() string {
	return fmt.Sprintf("FromPort=%d,ToPort=%d,IpRange=%s,Protocol=%s", p.FromPort, p.ToPort, p.IPRange, p.Protocol)
}

// SSHPermission builds the single-host TCP/22 rule for the given IPv4 address.
func SSHPermission(ip string) Permission {
	return Permission{
		Protocol: string(gameliftTypes.IpProtocolTcp),
		FromPort: SSHPort,
		ToPort:   SSHPort,
		IPRange:  ip + "/32",
	}
}

// InstanceAccess is the short-lived credential issued for one instance.
type InstanceAccess struct {
	FleetID         string
	InstanceID      string
	IPAddress       string
	OperatingSystem string
	UserName        string
	Secret          string
}

type Client struct {
	api    API
	logger *logrus.Logger
}

func New(api API, logger *logrus.Logger) *Client {
	return &Client{api: api, logger: logger}
}

// NewFromEnvironment loads the ambient AWS configuration (env, shared config,
// instance role) and returns a client backed by the GameLift SDK.
func NewFromEnvironment(ctx context.Context, region, profile string, logger *logrus.Logger) (*Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"region":  cfg.Region,
		"profile": profile,
	}).Debug("Loaded AWS SDK config")

	return New(gamelift.NewFromConfig(cfg), logger), nil
}

// AuthorizeSSH opens TCP/22 from ip/32 on every instance of the fleet.
// The rule has no expiry; revoking it is left to the operator.
func (c *Client) AuthorizeSSH(ctx context.Context, fleetID, ip string) (Permission, error) {
	perm := SSHPermission(ip)

	c.logger.WithFields(logrus.Fields{
		"fleet_id":   fleetID,
		"permission": perm.String(),
	}).Debug("Authorizing inbound permission")

	_, err := c.api.UpdateFleetPortSettings(ctx, &gamelift.UpdateFleetPortSettingsInput{
		FleetId: aws.String(fleetID),
		InboundPermissionAuthorizations: []gameliftTypes.IpPermission{
			{
				FromPort: aws.Int32(perm.FromPort),
				ToPort:   aws.Int32(perm.ToPort),
				IpRange:  aws.String(perm.IPRange),
				Protocol: gameliftTypes.IpProtocol(perm.Protocol),
			},
		},
	})
	if err != nil {
		return Permission{}, fmt.Errorf("failed to update port settings for fleet %s: %w", fleetID, err)
	}

	return perm, nil
}

// GetInstanceAccess requests temporary credentials for a single instance.
func (c *Client) GetInstanceAccess(ctx context.Context, fleetID, instanceID string) (*InstanceAccess, error) {
	out, err := c.api.GetInstanceAccess(ctx, &gamelift.GetInstanceAccessInput{
		FleetId:    aws.String(fleetID),
		InstanceId: aws.String(instanceID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get access for instance %s in fleet %s: %w", instanceID, fleetID, err)
	}

	if out == nil || out.InstanceAccess == nil {
		return nil, fmt.Errorf("no instance access returned for instance %s in fleet %s", instanceID, fleetID)
	}

	access := out.InstanceAccess
	if access.Credentials == nil {
		return nil, fmt.Errorf("no credentials returned for instance %s in fleet %s", instanceID, fleetID)
	}

	result := &InstanceAccess{
		FleetID:         fleetID,
		InstanceID:      instanceID,
		IPAddress:       aws.ToString(access.IpAddress),
		OperatingSystem: string(access.OperatingSystem),
		UserName:        aws.ToString(access.Credentials.UserName),
		Secret:          aws.ToString(access.Credentials.Secret),
	}

	c.logger.WithFields(logrus.Fields{
		"fleet_id":    fleetID,
		"instance_id": instanceID,
		"ip_address":  result.IPAddress,
		"os":          result.OperatingSystem,
		"username":    result.UserName,
	}).Debug("Received instance access")

	return result, nil
}

// RevocationCommand returns the AWS CLI invocation that removes perm from the fleet.
func RevocationCommand(fleetID string, perm Permission, region, profile string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "aws gamelift update-fleet-port-settings --fleet-id %s --inbound-permission-revocations \"%s\"", fleetID, perm.String())
	if region != "" {
		fmt.Fprintf(&b, " --region %s", region)
	}
	if profile != "" {
		fmt.Fprintf(&b, " --profile %s", profile)
	}
	return b.String()
}

// APIErrorCode returns the service error code wrapped in err, or "" if none.
func APIErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
