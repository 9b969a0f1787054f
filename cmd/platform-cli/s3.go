package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	awscloud "github.com/platform-tools/platform-cli/internal/cloud/aws"
	"github.com/platform-tools/platform-cli/internal/config"
	"github.com/platform-tools/platform-cli/internal/models"
	"github.com/platform-tools/platform-cli/internal/prompts"
)

func s3Command() *cli.Command {
	return &cli.Command{
		Name:  "s3",
		Usage: "S3 bucket commands",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List buckets created by this CLI",
				Flags:  []cli.Flag{ownerFlag("Filter by Owner tag"), profileFlag()},
				Action: s3List,
			},
			{
				Name:      "create",
				Usage:     "Create a bucket with safe defaults and tagging",
				ArgsUsage: "<name> [private|public]",
				Flags: []cli.Flag{
					ownerFlag("Owner tag value (defaults to the local user)"),
					&cli.StringFlag{Name: "project", Usage: "Project tag"},
					&cli.StringFlag{Name: "env", Usage: "Environment tag"},
					&cli.BoolFlag{Name: "yes", Usage: "Skip the public-visibility confirmation"},
					profileFlag(), regionFlag(),
				},
				Action: s3Create,
			},
			{
				Name:      "upload",
				Usage:     "Upload a local file to a CLI-created bucket",
				ArgsUsage: "<bucket> <file> [<key>]",
				Flags:     []cli.Flag{profileFlag(), regionFlag()},
				Action:    s3Upload,
			},
			{
				Name:      "delete",
				Usage:     "Delete a CLI-created bucket (must be empty unless --force)",
				ArgsUsage: "<bucket>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Purge all objects and versions first"},
					&cli.BoolFlag{Name: "yes", Usage: "Skip confirmation"},
					profileFlag(), regionFlag(),
				},
				Action: s3Delete,
			},
		},
	}
}

func s3List(c *cli.Context) error {
	sess, err := newSession(c)
	if err != nil {
		return err
	}
	names, err := sess.ListBuckets(c.Context, c.String("owner"))
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Printf("No buckets found (tag %s=%s).\n", config.AttributionKey, config.AttributionValue)
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func s3Create(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return &models.ValidationError{Field: "arguments", Value: "", Expected: "<name> [private|public]"}
	}
	name := c.Args().Get(0)

	visibility := strings.ToLower(c.Args().Get(1))
	if visibility == "" {
		visibility = "private"
	}
	if visibility != "private" && visibility != "public" {
		return &models.ValidationError{Field: "visibility", Value: visibility, Expected: "private or public"}
	}

	if visibility == "public" {
		msg := "This will make the bucket PUBLIC (readable by everyone). Continue?"
		if err := prompts.Confirm(msg, c.Bool("yes")); err != nil {
			return err
		}
	}

	owner := c.String("owner")
	if owner == "" {
		owner = config.DefaultOwner()
	}

	sess, err := newSession(c)
	if err != nil {
		return err
	}
	steps, err := sess.CreateBucket(c.Context, awscloud.CreateBucketOptions{
		Name:    name,
		Public:  visibility == "public",
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
	fmt.Printf("Bucket created (%s) and tagged: %s (region=%s)\n",
		strings.ToUpper(visibility), name, sess.Region())
	return nil
}

func s3Upload(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return &models.ValidationError{Field: "arguments", Value: strings.Join(c.Args().Slice(), " "),
			Expected: "<bucket> <file> [<key>]"}
	}
	bucket := c.Args().Get(0)
	filePath := c.Args().Get(1)
	key := c.Args().Get(2)

	if st, err := os.Stat(filePath); err != nil || st.IsDir() {
		return &models.ValidationError{Field: "file", Value: filePath, Expected: "an existing, readable file"}
	}

	sess, err := newSession(c)
	if err != nil {
		return err
	}
	uploadedKey, err := sess.UploadObject(c.Context, bucket, filePath, key)
	if err != nil {
		return err
	}
	fmt.Printf("Uploaded %s -> s3://%s/%s (region=%s)\n", filePath, bucket, uploadedKey, sess.Region())
	return nil
}

func s3Delete(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return &models.ValidationError{Field: "arguments", Value: strings.Join(c.Args().Slice(), " "),
			Expected: "<bucket>"}
	}
	bucket := c.Args().First()
	force := c.Bool("force")

	sess, err := newSession(c)
	if err != nil {
		return err
	}

	msg := "This will DELETE the bucket"
	if force {
		msg += " and ALL contents (versions!)"
	} else {
		msg += " (must be empty)"
	}
	msg += fmt.Sprintf(": %s. Continue?", bucket)
	if err := prompts.Confirm(msg, c.Bool("yes")); err != nil {
		return err
	}

	if err := sess.DeleteBucket(c.Context, bucket, force); err != nil {
		return err
	}
	fmt.Printf("Bucket deleted: %s (region=%s)\n", bucket, sess.Region())
	return nil
}
