package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/x2conn/internal/cli/output"
	"github.com/yndnr/x2conn/internal/connection"
)

// RequestCommand sends authenticated requests through the session.
func RequestCommand() *cli.Command {
	return &cli.Command{
		Name:    "request",
		Aliases: []string{"req"},
		Usage:   "Send an authenticated request to the API",
		Subcommands: []*cli.Command{
			requestVerbCommand(http.MethodGet),
			requestVerbCommand(http.MethodPost),
			requestVerbCommand(http.MethodPut),
			requestVerbCommand(http.MethodDelete),
		},
	}
}

func requestVerbCommand(method string) *cli.Command {
	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "query",
			Usage: "Query parameter as key=value",
		},
		&cli.StringSliceFlag{
			Name:  "req-header",
			Usage: "Request header as 'Name: value'",
		},
	}
	if method == http.MethodPost || method == http.MethodPut {
		flags = append(flags, &cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "JSON body, or @FILE to read it from a file",
		})
	}

	return &cli.Command{
		Name:      strings.ToLower(method),
		Usage:     method + " a path relative to the base URL",
		ArgsUsage: "PATH",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			return runRequest(c, method)
		},
	}
}

func runRequest(c *cli.Context, method string) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("path is required")
	}

	opts, err := requestOptions(c)
	if err != nil {
		return err
	}

	sess, err := openSession(c, nil)
	if err != nil {
		return err
	}
	defer sess.Close(c.Context)

	var resp *connection.Response
	switch method {
	case http.MethodGet:
		resp, err = sess.mgr.Get(c.Context, path, opts...)
	case http.MethodPost:
		resp, err = sess.mgr.Post(c.Context, path, opts...)
	case http.MethodPut:
		resp, err = sess.mgr.Put(c.Context, path, opts...)
	case http.MethodDelete:
		resp, err = sess.mgr.Delete(c.Context, path, opts...)
	}
	if err != nil {
		return err
	}
	return writeBody(c, resp.Body)
}

func requestOptions(c *cli.Context) ([]connection.RequestOption, error) {
	var opts []connection.RequestOption

	for _, q := range c.StringSlice("query") {
		k, v, ok := strings.Cut(q, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid query %q, want key=value", q)
		}
		opts = append(opts, connection.WithQuery(k, v))
	}
	for _, h := range c.StringSlice("req-header") {
		k, v, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid header %q, want 'Name: value'", h)
		}
		opts = append(opts, connection.WithHeader(strings.TrimSpace(k), strings.TrimSpace(v)))
	}

	data := c.String("data")
	if data == "" {
		return opts, nil
	}
	body := []byte(data)
	if file, ok := strings.CutPrefix(data, "@"); ok {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		body = b
	}
	if !json.Valid(body) {
		return nil, errors.New("body is not valid JSON")
	}
	return append(opts, connection.WithBody(body, "application/json")), nil
}

// writeBody prints a response body. JSON bodies go through the output
// formatter; anything else is written as received.
func writeBody(c *cli.Context, body []byte) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		_, err = c.App.Writer.Write(body)
		return err
	}

	return output.Write(c.App.Writer, outputFormat(c), v)
}
