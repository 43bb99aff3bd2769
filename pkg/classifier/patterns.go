package classifier

import (
	"regexp"

	"github.com/mendhq/mend/pkg/types"
)

// kindProfile fixes the per-kind defaults applied to every classified
// error of that kind
type kindProfile struct {
	severity        types.Severity
	autoRecoverable bool
}

// rule binds one compiled pattern to its context extractor. The extractor
// receives the submatches of the pattern and returns additional context.
type rule struct {
	pattern *regexp.Regexp
	extract func(match []string) map[string]string
}

// kindRules holds the ordered pattern list for a single kind
type kindRules struct {
	kind  types.ErrorKind
	rules []rule
}

var profiles = map[types.ErrorKind]kindProfile{
	types.ErrorKindPortConflict:         {types.SeverityHigh, true},
	types.ErrorKindNameConflict:         {types.SeverityMedium, true},
	types.ErrorKindImagePullFailed:      {types.SeverityHigh, true},
	types.ErrorKindPermissionDenied:     {types.SeverityHigh, true},
	types.ErrorKindResourceExhausted:    {types.SeverityCritical, true},
	types.ErrorKindNetworkError:         {types.SeverityMedium, true},
	types.ErrorKindDaemonError:          {types.SeverityCritical, true},
	types.ErrorKindContainerStartFailed: {types.SeverityHigh, true},
	types.ErrorKindVolumeMountError:     {types.SeverityHigh, true},
	types.ErrorKindHealthCheckFailed:    {types.SeverityMedium, true},
	types.ErrorKindDatabaseConfigError:  {types.SeverityHigh, true},
	types.ErrorKindPluginMissing:        {types.SeverityLow, true},
	types.ErrorKindUnknown:              {types.SeverityMedium, false},
}

func noExtract(match []string) map[string]string { return nil }

func capture(key string) func([]string) map[string]string {
	return func(match []string) map[string]string {
		if len(match) > 1 && match[1] != "" {
			return map[string]string{key: match[1]}
		}
		return nil
	}
}

// taxonomy is the ordered classification table. Kinds are checked in this
// order and the first matching pattern wins, so more specific kinds must
// stay ahead of generic ones: a containerd socket "connection refused"
// must classify as a daemon error before the generic network rules see
// it, and a bare "failed" substring never matches anything.
var taxonomy = []kindRules{
	{
		kind: types.ErrorKindPortConflict,
		rules: []rule{
			{regexp.MustCompile(`(?i)bind.*port\s+(\d+).*address already in use`), capture("port")},
			{regexp.MustCompile(`(?i)port\s+(\d+)\s+is already (?:allocated|in use)`), capture("port")},
			{regexp.MustCompile(`(?i)listen tcp[^:]*:(\d+): bind: address already in use`), capture("port")},
		},
	},
	{
		kind: types.ErrorKindNameConflict,
		rules: []rule{
			{regexp.MustCompile(`(?i)name\s+"?/?([a-zA-Z0-9][a-zA-Z0-9_.-]*)"?\s+is already in use by container`), capture("conflicting_name")},
			{regexp.MustCompile(`(?i)container name\s+"?/?([a-zA-Z0-9][a-zA-Z0-9_.-]*)"?\s+.*conflict`), capture("conflicting_name")},
			{regexp.MustCompile(`(?i)conflict\. the container name\s+"?/?([a-zA-Z0-9][a-zA-Z0-9_.-]*)"?`), capture("conflicting_name")},
		},
	},
	{
		kind: types.ErrorKindImagePullFailed,
		rules: []rule{
			{regexp.MustCompile(`(?i)(?:failed|error).{0,40}pull(?:ing)?\s+image\s+"?([^\s"]+)"?`), capture("image")},
			{regexp.MustCompile(`(?i)manifest for\s+(\S+)\s+not found`), capture("image")},
			{regexp.MustCompile(`(?i)pull access denied for\s+([^\s,]+)`), capture("image")},
		},
	},
	{
		kind: types.ErrorKindVolumeMountError,
		rules: []rule{
			{regexp.MustCompile(`(?i)(?:failed|error).{0,40}mount(?:ing)?\s+volume\s+"?([^\s"]*)"?`), capture("volume")},
			{regexp.MustCompile(`(?i)volume\s+"?([^\s"]+)"?\s+not found`), capture("volume")},
			{regexp.MustCompile(`(?i)invalid mount config`), noExtract},
		},
	},
	{
		kind: types.ErrorKindDatabaseConfigError,
		rules: []rule{
			{regexp.MustCompile(`(?i)database system is shut(?:ting)? down`), noExtract},
			{regexp.MustCompile(`(?i)database files are incompatible with server`), noExtract},
			{regexp.MustCompile(`(?i)invalid (?:entry|line) in.*pg_hba`), noExtract},
			{regexp.MustCompile(`(?i)fatal:\s+(?:database|role)\s+"([^"]+)"\s+does not exist`), capture("identifier")},
			{regexp.MustCompile(`(?i)could not open configuration file\s+"?([^\s"]+)"?`), capture("config_file")},
		},
	},
	{
		kind: types.ErrorKindPluginMissing,
		rules: []rule{
			{regexp.MustCompile(`(?i)plugin\s+"?([a-zA-Z0-9][a-zA-Z0-9_-]*)"?\s+(?:not found|is missing|missing)`), capture("plugin")},
			{regexp.MustCompile(`(?i)failed to load plugin:?\s+"?([a-zA-Z0-9][a-zA-Z0-9_-]*)"?`), capture("plugin")},
		},
	},
	{
		kind: types.ErrorKindDaemonError,
		rules: []rule{
			{regexp.MustCompile(`(?i)cannot connect to the docker daemon`), noExtract},
			{regexp.MustCompile(`(?i)containerd.{0,40}(?:unavailable|not running|connection refused)`), noExtract},
			{regexp.MustCompile(`(?i)daemon is not running`), noExtract},
			{regexp.MustCompile(`(?i)dial unix\s+(\S+): connect: connection refused`), capture("socket")},
		},
	},
	{
		kind: types.ErrorKindPermissionDenied,
		rules: []rule{
			{regexp.MustCompile(`(?i)open\s+([^\s:]+):\s+permission denied`), capture("path")},
			{regexp.MustCompile(`(?i)permission denied.{0,20}?(/[^\s:'"]+)`), capture("path")},
			{regexp.MustCompile(`(?i)permission denied`), noExtract},
			{regexp.MustCompile(`(?i)operation not permitted`), noExtract},
		},
	},
	{
		kind: types.ErrorKindResourceExhausted,
		rules: []rule{
			{regexp.MustCompile(`(?i)no space left on device`), func([]string) map[string]string {
				return map[string]string{"resource": "disk"}
			}},
			{regexp.MustCompile(`(?i)disk quota exceeded`), func([]string) map[string]string {
				return map[string]string{"resource": "disk"}
			}},
			{regexp.MustCompile(`(?i)(?:out of memory|cannot allocate memory|oom[- ]kill)`), func([]string) map[string]string {
				return map[string]string{"resource": "memory"}
			}},
			{regexp.MustCompile(`(?i)too many open files`), func([]string) map[string]string {
				return map[string]string{"resource": "file_descriptors"}
			}},
		},
	},
	{
		kind: types.ErrorKindContainerStartFailed,
		rules: []rule{
			{regexp.MustCompile(`(?i)(?:failed|error).{0,40}start(?:ing)?\s+container\s*"?([a-zA-Z0-9_.-]*)"?`), capture("container")},
			{regexp.MustCompile(`(?i)oci runtime create failed`), noExtract},
			{regexp.MustCompile(`(?i)container exited (?:immediately|with (?:non-zero )?(?:exit )?code\s+[1-9]\d*)`), noExtract},
		},
	},
	{
		kind: types.ErrorKindNetworkError,
		rules: []rule{
			{regexp.MustCompile(`(?i)network is unreachable`), noExtract},
			{regexp.MustCompile(`(?i)no route to host`), noExtract},
			{regexp.MustCompile(`(?i)dial tcp\s+([^\s:]+:\d+)`), capture("address")},
			{regexp.MustCompile(`(?i)connection (?:refused|reset by peer)`), noExtract},
			{regexp.MustCompile(`(?i)i/o timeout`), noExtract},
			{regexp.MustCompile(`(?i)(?:temporary failure in )?name resolution`), noExtract},
		},
	},
	{
		kind: types.ErrorKindHealthCheckFailed,
		rules: []rule{
			{regexp.MustCompile(`(?i)health check (?:failed|timed? ?out)`), noExtract},
			{regexp.MustCompile(`(?i)health probe (?:failed|unhealthy)`), noExtract},
			{regexp.MustCompile(`(?i)service\s+"?([a-zA-Z0-9_.-]+)"?\s+is unhealthy`), capture("service")},
		},
	},
}
