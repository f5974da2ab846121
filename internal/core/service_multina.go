package core

import (
	"context"
	"fmt"
	"sort"

	"clonetrack/internal/multina"
	"clonetrack/internal/workbook"
)

// MultiNAOptions name the inputs of a MultiNA analysis.
type MultiNAOptions struct {
	// Template is the PCR sheet generated with the MTP layout; empty uses the project default.
	Template string
	// Targets holds construct and fragment_length columns.
	Targets string
	// Data maps a PCR plate number to the stored MultiNA export of that plate.
	Data map[int]string
	// Result names the completed sheet; empty uses MultiNA_Result.<ext>.
	Result string
	// Window is the accepted spread around the target length; zero uses multina.DefaultWindow.
	Window float64
}

// AnalyzeMultiNA scores the PCR template of project against MultiNA exports
// and stores the completed sheet, ready for IngestPCR. It returns the result
// file name.
func (s *Service) AnalyzeMultiNA(ctx context.Context, project string, opts MultiNAOptions) (string, multina.Summary, error) {
	var summary multina.Summary
	result := opts.Result
	if result == "" {
		result = multina.DefaultResultName + s.workbook.Format().Extension()
	}
	err := s.observe(ctx, "analyze_multina", project, func(ctx context.Context) (string, error) {
		if _, err := s.project(project); err != nil {
			return result, err
		}
		template, err := s.workbook.Read(ctx, s.workbook.Resolve(opts.Template, project, workbook.KindPCR))
		if err != nil {
			return result, err
		}
		targets, err := s.workbook.Read(ctx, opts.Targets)
		if err != nil {
			return result, err
		}
		data, err := s.readMultiNA(ctx, opts.Data)
		if err != nil {
			return result, err
		}
		filled, sum, err := multina.Analyze(template, targets, data, opts.Window)
		if err != nil {
			return result, err
		}
		if _, err := s.workbook.Write(ctx, result, filled, map[string]string{"project": project, "operation": "analyze_multina"}); err != nil {
			return result, err
		}
		summary = sum
		s.logger.Info("multina analysed", "project", project, "file", result, "analyzed", sum.Analyzed, "in_range", sum.InRange, "window", sum.Window)
		return result, nil
	})
	return result, summary, err
}

func (s *Service) readMultiNA(ctx context.Context, files map[int]string) (map[int][]multina.Peak, error) {
	plates := make([]int, 0, len(files))
	for p := range files {
		plates = append(plates, p)
	}
	sort.Ints(plates)
	out := make(map[int][]multina.Peak, len(files))
	for _, p := range plates {
		name := files[p]
		_, rc, err := s.workbook.Store().Get(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		peaks, err := multina.Parse(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		out[p] = peaks
	}
	return out, nil
}
