package sql

import (
	"embed"
	_ "embed"
)

// Migrations holds the schema migration files, applied in filename order.
//
//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/transform_staging.sql
var TransformStaging string

//go:embed queries/delete_staging_batch.sql
var DeleteStagingBatch string

//go:embed queries/upcoding_deviation.sql
var UpcodingDeviation string

//go:embed queries/provider_monthly.sql
var ProviderMonthly string

//go:embed queries/phantom_groups.sql
var PhantomGroups string

//go:embed queries/cost_outlier_obs.sql
var CostOutlierObs string

//go:embed queries/relationship_pairs.sql
var RelationshipPairs string

//go:embed queries/cluster_profiles.sql
var ClusterProfiles string

//go:embed queries/provider_universe.sql
var ProviderUniverse string

// Analysis holds the descriptive-section queries, one file per section,
// named <nn>_<name>.sql.
//
//go:embed analysis/*.sql
var Analysis embed.FS

// AnalysisQuery returns the embedded query for one section file name.
func AnalysisQuery(name string) (string, error) {
	b, err := Analysis.ReadFile("analysis/" + name)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
