package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	awscloud "github.com/platform-tools/platform-cli/internal/cloud/aws"
	"github.com/platform-tools/platform-cli/internal/config"
	"github.com/platform-tools/platform-cli/internal/models"
	"github.com/platform-tools/platform-cli/internal/prompts"
	"github.com/platform-tools/platform-cli/internal/utils"
)

func ec2Command() *cli.Command {
	return &cli.Command{
		Name:  "ec2",
		Usage: "EC2 instance commands",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List instances created by this CLI",
				Flags:  []cli.Flag{ownerFlag("Filter by Owner tag"), profileFlag(), regionFlag()},
				Action: ec2List,
			},
			{
				Name:      "create",
				Usage:     "Create one tagged instance (allowed sizes: t2.small, t3.micro; max 2 active)",
				ArgsUsage: "<os: amzn|ubuntu> <size>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "key", Usage: "Key pair name (created if absent)"},
					&cli.StringFlag{Name: "key-type", Value: "rsa", Usage: "Key type for new key pairs: rsa or ed25519"},
					&cli.StringFlag{Name: "name", Usage: "Name tag (generated when omitted)"},
					&cli.BoolFlag{Name: "no-prompt", Usage: "Never prompt (fails instead of creating key material interactively)"},
					&cli.BoolFlag{Name: "dry-run", Usage: "Validate against AWS without creating anything"},
					ownerFlag("Owner tag value (defaults to the local user)"),
					&cli.StringFlag{Name: "project", Usage: "Project tag"},
					&cli.StringFlag{Name: "env", Usage: "Environment tag"},
					profileFlag(), regionFlag(),
				},
				Action: ec2Create,
			},
			{
				Name:      "start",
				Usage:     "Start a stopped instance",
				ArgsUsage: "<id-or-name>",
				Flags:     []cli.Flag{profileFlag(), regionFlag()},
				Action:    ec2Start,
			},
			{
				Name:      "stop",
				Usage:     "Stop a running instance",
				ArgsUsage: "<id-or-name>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Force stop"},
					profileFlag(), regionFlag(),
				},
				Action: ec2Stop,
			},
			{
				Name:      "terminate",
				Usage:     "Terminate one or more instances",
				ArgsUsage: "<id-or-name>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "Skip confirmation"},
					profileFlag(), regionFlag(),
				},
				Action: ec2Terminate,
			},
			{
				Name:      "describe",
				Usage:     "Show instance details, or all instances with --all",
				ArgsUsage: "<id-or-name>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "Summarize all instances for an owner instead of one target"},
					ownerFlag("Owner filter for --all (defaults to the local user)"),
					profileFlag(), regionFlag(),
				},
				Action: ec2Describe,
			},
		},
	}
}

func ec2List(c *cli.Context) error {
	sess, err := newSession(c)
	if err != nil {
		return err
	}
	rows, err := sess.ListInstances(c.Context, c.String("owner"))
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Printf("No instances found (tag %s=%s).\n", config.AttributionKey, config.AttributionValue)
		return nil
	}
	for _, r := range rows {
		fmt.Printf("%s\t%s\t%s\t%s\n", r.ID, r.State, r.Type, r.Name)
	}
	return nil
}

func ec2Create(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return &models.ValidationError{Field: "arguments", Value: strings.Join(c.Args().Slice(), " "),
			Expected: "<os: amzn|ubuntu> <size>"}
	}
	osName := c.Args().Get(0)
	size := c.Args().Get(1)

	owner := c.String("owner")
	if owner == "" {
		owner = config.DefaultOwner()
	}

	name := c.String("name")
	if name == "" {
		suffix, err := utils.GenerateRandomSuffix()
		if err != nil {
			return fmt.Errorf("generate instance name: %w", err)
		}
		name = fmt.Sprintf("%s-%s", owner, suffix)
	}

	sess, err := newSession(c)
	if err != nil {
		return err
	}

	noPrompt := c.Bool("no-prompt")
	result, err := sess.CreateInstance(c.Context, awscloud.CreateInstanceOptions{
		OS:           osName,
		InstanceType: size,
		Name:         name,
		KeyName:      c.String("key"),
		KeyType:      c.String("key-type"),
		Owner:        owner,
		Project:      c.String("project"),
		Env:          c.String("env"),
		DryRun:       c.Bool("dry-run"),
		ConfirmKey: func(keyName string) error {
			msg := fmt.Sprintf("Key pair '%s' does not exist. Create it and save the private key locally?", keyName)
			return prompts.Confirm(msg, noPrompt)
		},
	})
	if err != nil {
		return err
	}

	if result.DryRun {
		fmt.Println("[DRY-RUN] Would create instance:")
		fmt.Printf("[DRY-RUN]   ImageId=%s\n", result.ImageID)
		fmt.Printf("[DRY-RUN]   InstanceType=%s\n", size)
		fmt.Printf("[DRY-RUN]   Name=%s Owner=%s\n", name, owner)
		return nil
	}
	if result.KeyCreated {
		fmt.Printf("Key pair created; private key saved to %s (mode 0600)\n", result.PrivateKeyPath)
	}
	fmt.Printf("Instance created: %s (ImageId=%s, Name=%s)\n", result.InstanceID, result.ImageID, result.Name)
	return nil
}

func singleTarget(c *cli.Context, action string) (*awscloud.Session, string, error) {
	if c.Args().Len() != 1 {
		return nil, "", &models.ValidationError{Field: "arguments", Value: strings.Join(c.Args().Slice(), " "),
			Expected: "exactly one <id-or-name>"}
	}
	sess, err := newSession(c)
	if err != nil {
		return nil, "", err
	}
	id, err := sess.ResolveSingle(c.Context, c.Args().First(), action)
	if err != nil {
		return nil, "", err
	}
	return sess, id, nil
}

func ec2Start(c *cli.Context) error {
	sess, id, err := singleTarget(c, "start")
	if err != nil {
		return err
	}
	if err := sess.StartInstance(c.Context, id); err != nil {
		return err
	}
	fmt.Printf("Instance starting: %s (region=%s)\n", id, sess.Region())
	return nil
}

func ec2Stop(c *cli.Context) error {
	sess, id, err := singleTarget(c, "stop")
	if err != nil {
		return err
	}
	if err := sess.StopInstance(c.Context, id, c.Bool("force")); err != nil {
		return err
	}
	fmt.Printf("Instance stopping: %s (region=%s)\n", id, sess.Region())
	return nil
}

func ec2Terminate(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return &models.ValidationError{Field: "arguments", Value: "", Expected: "one or more <id-or-name>"}
	}
	sess, err := newSession(c)
	if err != nil {
		return err
	}

	res, err := sess.ResolveTokens(c.Context, c.Args().Slice())
	if err != nil {
		return err
	}
	for _, name := range res.Unmatched {
		fmt.Fprintf(c.App.ErrWriter, "WARNING: no instance matches name '%s'\n", name)
	}

	authorized, unauthorized := sess.PartitionAuthorized(c.Context, res.IDs)
	for _, id := range unauthorized {
		fmt.Fprintf(c.App.ErrWriter, "WARNING: skipping %s: not tagged %s=%s\n",
			id, config.AttributionKey, config.AttributionValue)
	}
	if len(authorized) == 0 {
		return &models.NothingToDoError{Action: "terminate"}
	}

	msg := fmt.Sprintf("Terminate %d instance(s): %s. This is irreversible. Continue?",
		len(authorized), strings.Join(authorized, ", "))
	if err := prompts.Confirm(msg, c.Bool("yes")); err != nil {
		return err
	}

	changes, err := sess.TerminateInstances(c.Context, authorized)
	if err != nil {
		return err
	}
	for _, ch := range changes {
		fmt.Printf("%s: %s -> %s\n", ch.ID, ch.Previous, ch.Current)
	}
	return nil
}

func ec2Describe(c *cli.Context) error {
	if c.Bool("all") {
		if c.Args().Len() > 0 {
			return &models.ValidationError{Field: "arguments", Value: c.Args().First(),
				Expected: "no target with --all"}
		}
		owner := c.String("owner")
		if owner == "" {
			owner = config.DefaultOwner()
		}
		sess, err := newSession(c)
		if err != nil {
			return err
		}
		rows, err := sess.ListInstances(c.Context, owner)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Printf("No instances found for owner '%s'.\n", owner)
			return nil
		}
		for _, r := range rows {
			fmt.Printf("%s\t%s\t%s\t%s\n", r.ID, r.State, r.Type, r.Name)
		}
		return nil
	}

	sess, id, err := singleTarget(c, "describe")
	if err != nil {
		return err
	}
	d, err := sess.DescribeInstance(c.Context, id)
	if err != nil {
		return err
	}
	fmt.Printf("InstanceId:  %s\n", d.ID)
	fmt.Printf("State:       %s\n", d.State)
	fmt.Printf("Type:        %s\n", d.Type)
	fmt.Printf("AZ:          %s\n", d.AZ)
	fmt.Printf("LaunchTime:  %s\n", d.LaunchTime.Format("2006-01-02 15:04:05"))
	fmt.Printf("Name:        %s\n", d.Name)
	fmt.Printf("PublicIP:    %s\n", d.PublicIP)
	fmt.Printf("PrivateIP:   %s\n", d.PrivateIP)
	fmt.Println("Tags:")
	for _, t := range d.Tags {
		fmt.Printf("  %s=%s\n", t.Key, t.Value)
	}
	return nil
}
