package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	awscloud "github.com/platform-tools/platform-cli/internal/cloud/aws"
	"github.com/platform-tools/platform-cli/internal/utils"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Cross-service summary of resources created by this CLI",
		Flags: []cli.Flag{
			ownerFlag("Filter by Owner tag"),
			&cli.BoolFlag{Name: "deep", Usage: "Also total objects/bytes per bucket and records per zone (slower)"},
			profileFlag(), regionFlag(),
		},
		Action: statusAction,
	}
}

func statusAction(c *cli.Context) error {
	sess, err := newSession(c)
	if err != nil {
		return err
	}

	owner := c.String("owner")
	deep := c.Bool("deep")
	report := sess.CollectStatus(c.Context, awscloud.StatusOptions{Owner: owner, Deep: deep})

	profile := c.String("profile")
	if profile == "" {
		profile = "(default)"
	}
	ownerLabel := owner
	if ownerLabel == "" {
		ownerLabel = "(none)"
	}

	fmt.Println()
	fmt.Println("=== platform-cli status ===")
	fmt.Printf("Profile: %s   Region: %s   Owner filter: %s\n", profile, sess.Region(), ownerLabel)
	if report.Account != "" {
		fmt.Printf("Caller: %s (%s)\n", report.Arn, report.Account)
	}
	active := "NO"
	if report.Active() {
		active = "YES"
	}
	fmt.Printf("Active resources present: %s\n\n", active)

	if report.Compute.Err != nil {
		fmt.Fprintf(c.App.ErrWriter, "EC2: %v\n", report.Compute.Err)
		fmt.Println("EC2: unavailable (see errors above)")
	} else {
		ec2 := report.Compute
		fmt.Printf("EC2: running=%d pending=%d stopped=%d other=%d total=%d\n",
			ec2.Running, ec2.Pending, ec2.Stopped, ec2.Other, ec2.Total())
		if len(ec2.Examples) > 0 {
			fmt.Println("  Running examples (up to 10):")
			for _, ex := range ec2.Examples {
				if ex.Name != "" {
					fmt.Printf("   - %s (%s) Name=%s\n", ex.ID, ex.Type, ex.Name)
				} else {
					fmt.Printf("   - %s (%s)\n", ex.ID, ex.Type)
				}
			}
		}
	}

	if report.Storage.Err != nil {
		fmt.Fprintf(c.App.ErrWriter, "S3: %v\n", report.Storage.Err)
		fmt.Println("S3: unavailable (see errors above)")
	} else if deep {
		fmt.Printf("S3: buckets=%d total_objects=%d total_size=%s\n",
			report.Storage.Buckets, report.Storage.Objects, utils.FormatBytes(report.Storage.Bytes))
	} else {
		fmt.Printf("S3: buckets=%d  (use --deep for object/size totals)\n", report.Storage.Buckets)
	}

	if report.DNS.Err != nil {
		fmt.Fprintf(c.App.ErrWriter, "Route53: %v\n", report.DNS.Err)
		fmt.Println("Route53: unavailable (see errors above)")
	} else if deep {
		fmt.Printf("Route53: zones=%d total_records=%d\n", report.DNS.Zones, report.DNS.Records)
	} else {
		fmt.Printf("Route53: zones=%d  (use --deep to count records)\n", report.DNS.Zones)
	}

	fmt.Println()
	return nil
}
