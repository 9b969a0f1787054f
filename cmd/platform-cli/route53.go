package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	awscloud "github.com/platform-tools/platform-cli/internal/cloud/aws"
	"github.com/platform-tools/platform-cli/internal/config"
	"github.com/platform-tools/platform-cli/internal/models"
	"github.com/platform-tools/platform-cli/internal/prompts"
)

func route53Command() *cli.Command {
	return &cli.Command{
		Name:  "route53",
		Usage: "Route53 (DNS) commands",
		Subcommands: []*cli.Command{
			{
				Name:   "list-zones",
				Usage:  "List hosted zones created by this CLI",
				Flags:  []cli.Flag{ownerFlag("Filter by Owner tag"), profileFlag()},
				Action: r53ListZones,
			},
			{
				Name:      "create-zone",
				Usage:     "Create a public hosted zone and tag it",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					ownerFlag("Owner tag value (defaults to the local user)"),
					&cli.StringFlag{Name: "project", Usage: "Project tag"},
					&cli.StringFlag{Name: "env", Usage: "Environment tag"},
					&cli.StringFlag{Name: "comment", Value: "created by project-cli", Usage: "Zone comment"},
					profileFlag(),
				},
				Action: r53CreateZone,
			},
			{
				Name:      "list-records",
				Usage:     "List all record sets in a CLI-created zone",
				ArgsUsage: "<zone-id>",
				Flags:     []cli.Flag{profileFlag()},
				Action:    r53ListRecords,
			},
			{
				Name:      "create-record",
				Usage:     "Create or replace a record (upsert by name+type)",
				ArgsUsage: "<zone-id> <name> <type: A|AAAA|CNAME|TXT> <value> [<ttl=300>]",
				Flags:     []cli.Flag{profileFlag()},
				Action:    r53UpsertRecord,
			},
			{
				Name:      "update-record",
				Usage:     "Alias of create-record; same upsert semantics",
				ArgsUsage: "<zone-id> <name> <type: A|AAAA|CNAME|TXT> <value> [<ttl=300>]",
				Flags:     []cli.Flag{profileFlag()},
				Action:    r53UpsertRecord,
			},
			{
				Name:      "delete-record",
				Usage:     "Delete the record matching the exact name/type/TTL/value tuple",
				ArgsUsage: "<zone-id> <name> <type> <value> [<ttl=300>]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "Skip confirmation"},
					profileFlag(),
				},
				Action: r53DeleteRecord,
			},
		},
	}
}

func r53ListZones(c *cli.Context) error {
	sess, err := newSession(c)
	if err != nil {
		return err
	}
	zones, err := sess.ListZones(c.Context, c.String("owner"))
	if err != nil {
		return err
	}
	if len(zones) == 0 {
		fmt.Printf("No CLI-created hosted zones found (tag %s=%s).\n", config.AttributionKey, config.AttributionValue)
		return nil
	}
	for _, z := range zones {
		fmt.Printf("%s\t%s\n", z.ID, z.Name)
	}
	return nil
}

func r53CreateZone(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return &models.ValidationError{Field: "arguments", Value: strings.Join(c.Args().Slice(), " "),
			Expected: "<name>"}
	}
	name := c.Args().First()

	owner := c.String("owner")
	if owner == "" {
		owner = config.DefaultOwner()
	}

	sess, err := newSession(c)
	if err != nil {
		return err
	}
	id, steps, err := sess.CreateZone(c.Context, awscloud.CreateZoneOptions{
		Name:    name,
		Comment: c.String("comment"),
		Owner:   owner,
		Project: c.String("project"),
		Env:     c.String("env"),
	})
	if err != nil {
		return err
	}
	for _, w := range models.Warnings(steps) {
		fmt.Fprintf(c.App.ErrWriter, "%s\n", w)
	}
	fmt.Printf("Hosted zone created: %s\t%s\n", id, name)
	return nil
}

func r53ListRecords(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return &models.ValidationError{Field: "arguments", Value: strings.Join(c.Args().Slice(), " "),
			Expected: "<zone-id>"}
	}
	sess, err := newSession(c)
	if err != nil {
		return err
	}
	records, err := sess.ListRecords(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Printf("%s\t%s\t%d\t%s\n", r.Name, r.Type, r.TTL, strings.Join(r.Values, ","))
	}
	return nil
}

// recordChangeFromArgs parses the shared positional surface of the record
// commands: <zone-id> <name> <type> <value> [<ttl>].
func recordChangeFromArgs(c *cli.Context) (awscloud.RecordChange, error) {
	var change awscloud.RecordChange
	if c.Args().Len() < 4 {
		return change, &models.ValidationError{Field: "arguments", Value: strings.Join(c.Args().Slice(), " "),
			Expected: "<zone-id> <name> <type> <value> [<ttl>]"}
	}
	change.ZoneID = c.Args().Get(0)
	change.Name = c.Args().Get(1)
	change.Type = c.Args().Get(2)
	change.Value = c.Args().Get(3)
	change.TTL = awscloud.DefaultRecordTTL
	if raw := c.Args().Get(4); raw != "" {
		ttl, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ttl <= 0 {
			return change, &models.ValidationError{Field: "ttl", Value: raw, Expected: "a positive integer"}
		}
		change.TTL = ttl
	}
	return change, nil
}

func r53UpsertRecord(c *cli.Context) error {
	change, err := recordChangeFromArgs(c)
	if err != nil {
		return err
	}
	sess, err := newSession(c)
	if err != nil {
		return err
	}
	changeID, err := sess.UpsertRecord(c.Context, change)
	if err != nil {
		return err
	}
	fmt.Printf("Record upserted (%s %ds): %s value=%s change=%s\n",
		strings.ToUpper(change.Type), change.TTL, awscloud.NormalizeDNSName(change.Name), change.Value, changeID)
	return nil
}

func r53DeleteRecord(c *cli.Context) error {
	change, err := recordChangeFromArgs(c)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("Delete record %s %s (TTL %d, value %s) from zone %s?",
		awscloud.NormalizeDNSName(change.Name), strings.ToUpper(change.Type), change.TTL, change.Value, change.ZoneID)
	if err := prompts.Confirm(msg, c.Bool("yes")); err != nil {
		return err
	}

	sess, err := newSession(c)
	if err != nil {
		return err
	}
	changeID, err := sess.DeleteRecord(c.Context, change)
	if err != nil {
		return err
	}
	fmt.Printf("Record deleted (%s %ds): %s change=%s\n",
		strings.ToUpper(change.Type), change.TTL, awscloud.NormalizeDNSName(change.Name), changeID)
	return nil
}
