package image

// Report is the result of an Info query: either a single file's size, or
// a directory's recursive total size plus a listing of its immediate
// children. It is rendered to YAML by the CLI layer, not by this package.
type Report struct {
	Path      string         `yaml:"path"`
	IsDir     bool           `yaml:"is_dir"`
	SizeBytes uint64         `yaml:"size_bytes"`
	Children  []ChildReport  `yaml:"children,omitempty"`
}

// ChildReport is one entry in a directory Report's listing.
type ChildReport struct {
	Name      string `yaml:"name"`
	IsDir     bool   `yaml:"is_dir"`
	SizeBytes uint64 `yaml:"size_bytes"`
}

// AllocStat is the total/free slot count of one bitmap allocator.
type AllocStat struct {
	Total uint16 `yaml:"total"`
	Free  uint16 `yaml:"free"`
}

// AllocatorReport is the result of an AllocatorInfo query.
type AllocatorReport struct {
	Inodes AllocStat `yaml:"inodes"`
	Blocks AllocStat `yaml:"blocks"`
}
