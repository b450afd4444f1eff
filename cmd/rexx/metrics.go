// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/metrics"
	"github.com/olekukonko/tablewriter"
)

// reportMetrics prints every registered metric of the default registry.
func reportMetrics(w io.Writer) {
	rows := metricRows(metrics.DefaultRegistry)
	if len(rows) == 0 {
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Count", "Detail"})
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}

func metricRows(r metrics.Registry) [][]string {
	var rows [][]string
	r.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case metrics.Counter:
			rows = append(rows, []string{name, fmt.Sprint(m.Count()), ""})
		case metrics.Meter:
			s := m.Snapshot()
			rows = append(rows, []string{name, fmt.Sprint(s.Count()), fmt.Sprintf("%.2f/s", s.RateMean())})
		case metrics.Timer:
			s := m.Snapshot()
			rows = append(rows, []string{name, fmt.Sprint(s.Count()), "mean " + time.Duration(s.Mean()).String()})
		}
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
	return rows
}
