package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/atinyakov/accvault/internal/client"
	"github.com/atinyakov/accvault/internal/models"
)

var (
	version   string
	buildDate string
)

// commandArgs holds the flag values shared by every command.
type commandArgs struct {
	username string
	password string
	fullName string
	email    string
	file     string
	out      string
	value    string
}

const usage = "command: register | login | upload | download | list | delete-file | reset | delete-account | change-password | change-name"

// run executes a single command against the server.
func run(ctx context.Context, c *client.Client, p *client.Prompter, cmd string, a commandArgs, stdout io.Writer) error {
	switch cmd {
	case "register":
		reg, err := p.Registration(models.Registration{
			Username: a.username, Password: a.password, FullName: a.fullName, Email: a.email,
		})
		if err != nil {
			return err
		}
		msg, err := c.Register(ctx, reg)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, msg)
	case "login":
		if a.username == "" || a.password == "" {
			return errors.New("please provide -user and -password")
		}
		acc, err := c.Login(ctx, a.username, a.password)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Logged in as %s (%s, %s)\n", acc.Username, acc.FullName, acc.Email)
	case "upload":
		if a.username == "" || a.file == "" {
			return errors.New("please provide -user and -file")
		}
		f, err := os.Open(a.file)
		if err != nil {
			return err
		}
		defer f.Close()
		stored, err := c.Upload(ctx, a.username, filepath.Base(a.file), f)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, stored)
	case "download":
		if a.file == "" {
			return errors.New("please provide -file=<stored name>")
		}
		dst := a.out
		if dst == "" {
			dst = a.file
		}
		f, err := os.Create(dst)
		if err != nil {
			return err
		}
		if err := c.Download(ctx, a.file, f); err != nil {
			_ = f.Close()
			_ = os.Remove(dst)
			return err
		}
		return f.Close()
	case "list":
		if a.username == "" {
			return errors.New("please provide -user")
		}
		names, err := c.ListFiles(ctx, a.username)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(stdout, name)
		}
	case "delete-file":
		if a.file == "" {
			return errors.New("please provide -file=<stored name>")
		}
		return c.DeleteFile(ctx, a.file)
	case "reset", "delete-account":
		if a.username == "" {
			return errors.New("please provide -user")
		}
		var (
			failures []models.FileFailure
			err      error
		)
		if cmd == "reset" {
			failures, err = c.ResetFiles(ctx, a.username)
		} else {
			failures, err = c.DeleteAccount(ctx, a.username)
		}
		if err != nil {
			return err
		}
		for _, f := range failures {
			fmt.Fprintf(stdout, "could not remove %s: %s\n", f.Filename, f.Error)
		}
	case "change-password":
		if a.email == "" || a.value == "" {
			return errors.New("please provide -email and -value")
		}
		return c.ChangePassword(ctx, a.email, a.value)
	case "change-name":
		if a.email == "" || a.value == "" {
			return errors.New("please provide -email and -value")
		}
		return c.ChangeName(ctx, a.email, a.value)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
	return nil
}

// main parses command-line flags and dispatches to the requested command.
func main() {
	var (
		cmd     string
		baseURL string
		args    commandArgs
		showVer bool
	)

	flag.StringVar(&cmd, "cmd", "", usage)
	flag.StringVar(&baseURL, "url", "http://localhost:5000", "server base URL")
	flag.StringVar(&args.username, "user", "", "username")
	flag.StringVar(&args.password, "password", "", "password")
	flag.StringVar(&args.fullName, "name", "", "full name for registration")
	flag.StringVar(&args.email, "email", "", "email address")
	flag.StringVar(&args.file, "file", "", "local path to upload, or stored name to download/delete")
	flag.StringVar(&args.out, "out", "", "destination path for download")
	flag.StringVar(&args.value, "value", "", "new password or full name")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	c := client.New(baseURL, nil)
	p := client.NewPrompter(os.Stdin, os.Stdout)
	if err := run(ctx, c, p, cmd, args, os.Stdout); err != nil {
		log.Fatal(err)
	}
}
