package importer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/lychee-technology/gridstore/internal/pagestore"
	"github.com/lychee-technology/gridstore/internal/taskrunner"
	"github.com/lychee-technology/gridstore/internal/textparse"
)

func init() {
	gob.Register(shardTaskArgs{})
}

// Importer orchestrates the full pipeline described in spec §4.7:
// Sniff → Header parse → Plan → Shard → Consolidate → Fingerprint →
// Publish, dispatching shard work across a taskrunner.Pool.
type Importer struct {
	Shards *ShardStore
	Cold   *pagestore.ColdDB
	Store  *pagestore.Store
	Pool   *taskrunner.Pool
	Retry  RetryPolicy
	log    *zap.SugaredLogger
}

// New builds an Importer. log may be nil, in which case a no-op logger is
// used (grounded on the teacher's NewStore-style nil-logger default).
func New(shards *ShardStore, cold *pagestore.ColdDB, store *pagestore.Store, pool *taskrunner.Pool, log *zap.SugaredLogger) *Importer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Importer{Shards: shards, Cold: cold, Store: store, Pool: pool, Retry: DefaultRetryPolicy, log: log}
}

// shardTaskArgs is the gob-encodable payload a shard-writing task carries.
type shardTaskArgs struct {
	ImportRoot string
	SourcePath string
	Shard      Shard
	Parser     textparse.Config
	Columns    []ColumnSelection
	HasHeader  bool
	HeaderSkip int64 // byte offset of the first row after the header
}

// Import runs the full pipeline against cfg, publishing one cold Page per
// selected column and returning those Pages keyed by column name. If cfg
// matches the configuration recorded for importRoot, only the shard stage
// is skipped: consolidation, fingerprinting and publish run again from the
// shard data already stored.
func (imp *Importer) Import(ctx context.Context, importRoot string, cfg Config) (map[string]*pagestore.Page, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("importer: invalid config: %w", err)
	}

	reuse, err := imp.matchesRecordedConfig(ctx, importRoot, cfg)
	if err != nil {
		return nil, err
	}
	if !reuse {
		if err := imp.recordConfig(ctx, importRoot, cfg); err != nil {
			return nil, err
		}
		if err := imp.runShardStage(ctx, importRoot, cfg); err != nil {
			return nil, err
		}
	} else {
		imp.log.Infow("importer: reusing prior shard data", "import_root", importRoot)
	}

	return imp.consolidateAndPublish(ctx, importRoot)
}

func (imp *Importer) runShardStage(ctx context.Context, importRoot string, cfg Config) error {
	f, err := os.Open(cfg.SourcePath)
	if err != nil {
		return fmt.Errorf("importer: open source %s: %w", cfg.SourcePath, err)
	}
	defer f.Close()

	sample := make([]byte, SampleSize)
	n, _ := io.ReadFull(f, sample)
	sample = sample[:n]

	var knownSep byte
	if len(cfg.Delimiter) > 0 {
		knownSep = cfg.Delimiter[0]
	}
	sniffed, err := Sniff(sample, knownSep)
	if err != nil {
		return err
	}

	parserCfg := textparse.Config{Delimiter: []byte{sniffed.Separator}}
	if cfg.Quote != "" {
		parserCfg.HasQuote = true
		parserCfg.Quote = cfg.Quote[0]
	}
	if cfg.Brackets != "" {
		open, closeSet, err := textparse.ParseBracketPairs(cfg.Brackets)
		if err != nil {
			return fmt.Errorf("importer: %w", err)
		}
		parserCfg.Open = open
		parserCfg.Close = closeSet
		parserCfg.HasBrackets = true
	}
	parser, err := textparse.New(parserCfg)
	if err != nil {
		return fmt.Errorf("importer: build parser: %w", err)
	}

	headerSkip, err := headerByteLength(sample, cfg.HasHeader)
	if err != nil {
		return err
	}

	plan, err := BuildPlan(cfg.SourceSize, cfg.WorkingMemory, cfg.WorkerCount)
	if err != nil {
		return err
	}

	imp.Pool.Register("shard", imp.shardTask(parser))
	imp.Pool.Start()
	defer imp.Pool.Stop()

	for _, sh := range plan.Shards {
		imp.Pool.Add("shard", shardTaskArgs{
			ImportRoot: importRoot,
			SourcePath: cfg.SourcePath,
			Shard:      sh,
			Parser:     parserCfg,
			Columns:    cfg.Columns,
			HasHeader:  cfg.HasHeader,
			HeaderSkip: headerSkip,
		})
	}

	_, err = imp.Pool.Execute(len(plan.Shards))
	return err
}

func headerByteLength(sample []byte, hasHeader bool) (int64, error) {
	if !hasHeader {
		return 0, nil
	}
	idx := bytes.IndexByte(sample, '\n')
	if idx < 0 {
		return 0, fmt.Errorf("importer: header line exceeds sample window")
	}
	return int64(idx + 1), nil
}

// shardTask returns the taskrunner.Callable that opens the source at the
// shard's start, aligns to the next line boundary, parses each line with
// parser, and writes each column's typed array to the shard store (spec
// §4.7 step 4).
func (imp *Importer) shardTask(parser *textparse.Parser) taskrunner.Callable {
	return func(raw any) (any, error) {
		args := raw.(shardTaskArgs)
		ctx := context.Background()

		f, err := os.Open(args.SourcePath)
		if err != nil {
			return nil, fmt.Errorf("importer: shard open source: %w", err)
		}
		defer f.Close()

		start := args.Shard.Start
		if start == 0 {
			start = args.HeaderSkip
		} else {
			start, err = advanceToNextLine(f, start)
			if err != nil {
				return nil, err
			}
		}

		end := args.Shard.Start + args.Shard.Length
		lines, err := readLinesUpTo(f, start, end)
		if err != nil {
			return nil, err
		}

		columns := make(map[string][]string, len(args.Columns))
		for _, line := range lines {
			fields := parser.Split(line)
			for _, col := range args.Columns {
				idx := col.Index
				if idx >= 0 && idx < len(fields) {
					columns[col.Name] = append(columns[col.Name], fields[idx])
				}
			}
		}

		for _, col := range args.Columns {
			values := columns[col.Name]
			t, valueBytes, offsetBytes, length := encodeColumn(col.ElementType, values)
			if err := imp.Shards.WriteShard(ctx, imp.Retry, args.ImportRoot, col.Name, args.Shard.Start, t, length, valueBytes, offsetBytes); err != nil {
				return nil, fmt.Errorf("importer: write shard for column %s: %w", col.Name, err)
			}
		}
		return nil, nil
	}
}

// encodeColumn converts a shard's raw string cells for one column into its
// typed Values and the corresponding wire-format bytes. A cell that fails
// conversion downgrades the whole shard's array to raw bytes for the rest
// of that shard (spec §4.7 "Type policy").
func encodeColumn(requested string, cells []string) (pagestore.ElementType, []byte, []byte, int) {
	t := elementTypeFromName(requested)
	v, ok := convertCells(t, cells)
	if !ok {
		t = pagestore.Bytes
		v = stringValuesOf(cells)
		v.Type = pagestore.Bytes
	}
	valueBytes, offsets := pagestore.EncodeValues(t, v)
	return t, valueBytes, pagestore.EncodeOffsets(offsets), v.Len()
}

func stringValuesOf(cells []string) pagestore.Values {
	bs := make([][]byte, len(cells))
	for i, c := range cells {
		bs[i] = []byte(c)
	}
	return pagestore.Values{Type: pagestore.String, ByteSlices: bs}
}

func advanceToNextLine(f *os.File, start int64) (int64, error) {
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return 0, err
	}
	r := bufio.NewReader(f)
	_, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, err
	}
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	return pos - int64(r.Buffered()), nil
}

func readLinesUpTo(f *os.File, start, limit int64) ([][]byte, error) {
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}
	r := bufio.NewReader(f)
	var lines [][]byte
	pos := start
	for pos < limit {
		line, err := r.ReadBytes('\n')
		pos += int64(len(line))
		line = bytes.TrimRight(line, "\r\n")
		if len(line) > 0 || err == nil {
			lines = append(lines, line)
		}
		if err != nil {
			break
		}
	}
	return lines, nil
}

func (imp *Importer) matchesRecordedConfig(ctx context.Context, importRoot string, cfg Config) (bool, error) {
	recorded, ok, err := imp.Shards.ColumnAttribute(ctx, importRoot, "__import__", "config")
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	digest, err := configDigest(cfg)
	if err != nil {
		return false, err
	}
	return recorded == digest, nil
}

func (imp *Importer) recordConfig(ctx context.Context, importRoot string, cfg Config) error {
	digest, err := configDigest(cfg)
	if err != nil {
		return err
	}
	return imp.Shards.recordColumnAttribute(ctx, importRoot, "__import__", "config", digest)
}

// configDigest renders cfg as the JSON string spec §6 documents for the
// `/.attrs["config"]` destination attribute (Config already carries the
// necessary json tags), so anything reading that attribute externally
// gets valid JSON rather than a Go %+v dump.
func configDigest(cfg Config) (string, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("importer: marshal config digest: %w", err)
	}
	return string(raw), nil
}

// consolidateAndPublish runs steps 5-7 of the pipeline for every column
// with shard data under importRoot.
func (imp *Importer) consolidateAndPublish(ctx context.Context, importRoot string) (map[string]*pagestore.Page, error) {
	names, err := imp.Shards.ColumnNames(ctx, importRoot)
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*pagestore.Page, len(names))
	for _, name := range names {
		if name == "__import__" {
			continue
		}
		shards, err := imp.Shards.ReadShards(ctx, importRoot, name)
		if err != nil {
			return nil, err
		}
		col, err := Consolidate(name, shards)
		if err != nil {
			return nil, err
		}
		col.SHA256Sum = StreamFingerprint(col.ValueBytes)
		if err := imp.Shards.RecordSHA256Sum(ctx, importRoot, col); err != nil {
			return nil, err
		}

		page, err := Publish(ctx, imp.Cold, imp.Store, imp.Cold.Path(), col)
		if err != nil {
			return nil, err
		}
		pages[name] = page
	}
	return pages, nil
}
