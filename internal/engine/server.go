package engine

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/olivier-w/spectracast/internal/logging"
	"github.com/olivier-w/spectracast/internal/report"
	"github.com/olivier-w/spectracast/internal/target"
	"github.com/rs/zerolog"
)

// Serve answers requests read from r by calling t, writing responses to w.
// It returns nil when r reaches EOF. Failed calls are reported to the
// client and do not stop the loop.
func Serve(ctx context.Context, r io.Reader, w io.Writer, t target.Target, logger zerolog.Logger) error {
	log := logging.WithComponent(logger, "engine-server")
	in := bufio.NewReaderSize(r, 1<<20)
	enc := json.NewEncoder(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := in.ReadBytes('\n')
		if len(line) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading request: %w", err)
		}

		var req Request
		var resp Response
		if jerr := json.Unmarshal(line, &req); jerr != nil {
			resp = Response{Error: fmt.Sprintf("malformed request: %v", jerr)}
		} else {
			resp = dispatch(ctx, t, req)
			resp.ID = req.ID
		}
		if !resp.OK {
			log.Debug().Str("method", req.Method).Str("error", resp.Error).Msg("request failed")
		}
		if werr := enc.Encode(resp); werr != nil {
			return fmt.Errorf("writing response: %w", werr)
		}
		if err != nil {
			// last line had no trailing newline
			return nil
		}
	}
}

func dispatch(ctx context.Context, t target.Target, req Request) Response {
	fail := func(err error) Response { return Response{Error: err.Error()} }

	switch req.Method {
	case MethodNavigate:
		var p navigateParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(err)
		}
		if err := t.Navigate(ctx, p.Source, target.Viewport{Width: p.Width, Height: p.Height}); err != nil {
			return fail(err)
		}
	case MethodConfigure:
		var p map[string]any
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				return fail(err)
			}
		}
		if err := t.Reinitialize(ctx, configFromParams(p)); err != nil {
			return fail(err)
		}
	case MethodOverlay:
		var p overlayParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fail(err)
		}
		ov, err := target.ParseDataURL(p.URL)
		if err != nil {
			return fail(err)
		}
		ov.Name = p.Name
		if err := t.LoadOverlay(ctx, ov); err != nil {
			return fail(err)
		}
	case MethodInject:
		var f report.Frame
		if err := json.Unmarshal(req.Params, &f); err != nil {
			return fail(err)
		}
		if err := t.InjectFrame(ctx, f); err != nil {
			return fail(err)
		}
	case MethodRedraw:
		if err := t.Redraw(ctx); err != nil {
			return fail(err)
		}
	case MethodCapture:
		img, err := t.Capture(ctx)
		if err != nil {
			return fail(err)
		}
		return Response{OK: true, Image: base64.StdEncoding.EncodeToString(img)}
	default:
		return fail(fmt.Errorf("unknown method %q", req.Method))
	}
	return Response{OK: true}
}
