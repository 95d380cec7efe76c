// Package analyze runs the numbered analysis sections over the loaded fact
// table and persists each section's result tables through a Sink. Sections
// are isolated: one failing section is logged and skipped, the rest run.
package analyze

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimstats/internal/config"
	"github.com/gyeh/claimstats/internal/fraud"
	embedsql "github.com/gyeh/claimstats/internal/sql"
)

// Section is one numbered analysis step.
type Section struct {
	Number int
	Name   string
	Title  string
	Group  string
	Run    func(ctx context.Context, rt *Runtime) error
}

// Runtime carries the shared state a section runs against. Signals
// accumulates the flagged provider sets as fraud sections complete, so the
// composite section scores whatever subset actually ran.
type Runtime struct {
	Pool    *pgxpool.Pool
	Log     zerolog.Logger
	Sink    Sink
	Th      config.Thresholds
	Signals fraud.Signals
}

// FraudSectionStart is the first fraud-group section number; --skip-fraud
// excludes everything from here up.
const FraudSectionStart = 33

// descriptive builds a section whose whole job is one embedded aggregation
// query written straight to the sink.
func descriptive(number int, name, title, group string) Section {
	return Section{
		Number: number,
		Name:   name,
		Title:  title,
		Group:  group,
		Run: func(ctx context.Context, rt *Runtime) error {
			file := fmt.Sprintf("%02d_%s.sql", number, name)
			q, err := embedsql.AnalysisQuery(file)
			if err != nil {
				return fmt.Errorf("load query %s: %w", file, err)
			}
			header, rows, err := queryTable(ctx, rt.Pool, q)
			if err != nil {
				return err
			}
			return rt.Sink.WriteTable(group, fmt.Sprintf("%02d_%s", number, name), header, rows)
		},
	}
}

// Registry returns all sections in execution order.
func Registry() []Section {
	return []Section{
		descriptive(1, "dataset_overview", "Exploratory Data Analysis", "eda"),
		descriptive(2, "monthly_trends", "Monthly & Yearly Spending Trends", "eda"),
		descriptive(3, "top_procedures", "Top Procedures by Spending", "eda"),
		descriptive(4, "top_providers", "Top Billing Providers", "eda"),
		descriptive(5, "cost_efficiency", "Cost Efficiency Metrics", "eda"),
		descriptive(6, "zscore_anomalies", "Anomaly Detection", "stats"),
		descriptive(7, "billing_vs_servicing", "Billing vs Servicing Provider Analysis", "providers"),
		descriptive(8, "concentration", "Market Concentration Analysis", "stats"),
		descriptive(9, "correlations", "Correlation Analysis", "stats"),
		descriptive(10, "procedure_diversity", "Procedure Diversity per Provider", "providers"),
		descriptive(11, "seasonality", "Temporal Patterns & Seasonality", "temporal"),
		descriptive(12, "high_value_records", "Highest-Value Records", "eda"),
		descriptive(13, "provider_growth", "Provider Growth & Trajectory Analysis", "providers"),
		descriptive(14, "hcpcs_categories", "HCPCS Category Analysis", "procedures"),
		descriptive(15, "power_law", "Power-Law & Pareto Analysis", "stats"),
		descriptive(16, "provider_network", "Provider Network (Billing-Servicing)", "providers"),
		descriptive(17, "distribution_tests", "Statistical Distribution Tests", "stats"),
		descriptive(18, "spending_deciles", "Spending Decile & Inequality Analysis", "stats"),
		descriptive(19, "beneficiary_intensity", "Beneficiary Intensity", "temporal"),
		descriptive(20, "paid_distribution", "Distribution Deep-Dive", "visualization"),
		descriptive(21, "rolling_cumulative", "Rolling & Cumulative Metrics", "temporal"),
		descriptive(22, "yoy_comparison", "Year-over-Year Cohort Comparison", "temporal"),
		descriptive(23, "code_cooccurrence", "Procedure Co-occurrence Analysis", "procedures"),
		descriptive(24, "provider_tenure", "Provider Tenure & Longevity", "providers"),
		descriptive(25, "spending_velocity", "Spending Velocity & Acceleration", "temporal"),
		descriptive(26, "claim_size_histogram", "Claims Size Distribution", "procedures"),
		descriptive(27, "specialization_hhi", "Provider Specialization Index", "providers"),
		descriptive(28, "outlier_profiles", "Outlier Deep-Dive Profiling", "visualization"),
		descriptive(29, "market_share", "Market Share Dynamics", "providers"),
		descriptive(30, "code_lifecycle", "HCPCS Code Lifecycle", "procedures"),
		descriptive(31, "benford_first_digit", "Benford's Law Analysis", "stats"),
		descriptive(32, "executive_summary", "Executive Summary Dashboard", "visualization"),

		{Number: 33, Name: "upcoding", Title: "Upcoding Detection", Group: "fraud", Run: runUpcoding},
		{Number: 34, Name: "velocity", Title: "Billing Velocity Anomalies", Group: "fraud", Run: runVelocity},
		{Number: 35, Name: "phantom", Title: "Phantom Billing Detection", Group: "fraud", Run: runPhantom},
		{Number: 36, Name: "clustering", Title: "Provider Clustering", Group: "fraud", Run: runClustering},
		{Number: 37, Name: "cost_outliers", Title: "Cost Outliers by Procedure", Group: "fraud", Run: runCostOutliers},
		{Number: 38, Name: "relationships", Title: "Billing-Servicing Relationship Anomalies", Group: "fraud", Run: runRelationships},
		{Number: 39, Name: "temporal", Title: "Temporal Billing Anomalies", Group: "fraud", Run: runTemporal},
		{Number: 40, Name: "composite", Title: "Composite Fraud Risk Scoring", Group: "fraud", Run: runComposite},
	}
}
