package grammar

type Terminal struct {
	Number        int    `json:"number"`
	Name          string `json:"name"`
	Precedence    int    `json:"prec"`
	Associativity string `json:"assoc"`
}

type NonTerminal struct {
	Number   int    `json:"number"`
	Name     string `json:"name"`
	Nullable bool   `json:"nullable"`
}

type Production struct {
	Number        int    `json:"number"`
	LHS           int    `json:"lhs"`
	RHS           []int  `json:"rhs"`
	Precedence    int    `json:"prec"`
	Associativity string `json:"assoc"`
	Action        int    `json:"action"`
}

type Item struct {
	Production int `json:"production"`
	Dot        int `json:"dot"`
}

type Transition struct {
	Symbol int `json:"symbol"`
	State  int `json:"state"`
}

type Reduce struct {
	LookAhead  []int `json:"look_ahead"`
	Production int   `json:"production"`
}

type SRConflict struct {
	Symbol            int  `json:"symbol"`
	State             int  `json:"state"`
	Production        int  `json:"production"`
	AdoptedState      *int `json:"adopted_state"`
	AdoptedProduction *int `json:"adopted_production"`
	AdoptedError      bool `json:"adopted_error"`
	ResolvedBy        int  `json:"resolved_by"`
}

type RRConflict struct {
	Symbol            int `json:"symbol"`
	Production1       int `json:"production_1"`
	Production2       int `json:"production_2"`
	AdoptedProduction int `json:"adopted_production"`
	ResolvedBy        int `json:"resolved_by"`
}

type State struct {
	Number           int           `json:"number"`
	Kernel           []*Item       `json:"kernel"`
	Shift            []*Transition `json:"shift"`
	Reduce           []*Reduce     `json:"reduce"`
	GoTo             []*Transition `json:"goto"`
	Accept           bool          `json:"accept"`
	DefaultReduction int           `json:"default_reduction"`
	ExplicitErrors   []int         `json:"explicit_errors"`
	SRConflict       []*SRConflict `json:"sr_conflict"`
	RRConflict       []*RRConflict `json:"rr_conflict"`
}

// LookAhead describes the look-ahead sets of a non-terminal transition. Reads and Includes
// hold transition numbers, and the other sets hold terminal numbers.
type LookAhead struct {
	Transition int   `json:"transition"`
	From       int   `json:"from"`
	Symbol     int   `json:"symbol"`
	To         int   `json:"to"`
	DirectRead []int `json:"direct_read"`
	Read       []int `json:"read"`
	Follow     []int `json:"follow"`
	Reads      []int `json:"reads"`
	Includes   []int `json:"includes"`
}

type Diagnostic struct {
	Kind        string   `json:"kind"`
	Location    string   `json:"location"`
	Message     string   `json:"message"`
	Row         int      `json:"row,omitempty"`
	State       *int     `json:"state,omitempty"`
	Items       []string `json:"items,omitempty"`
	Adopted     string   `json:"adopted,omitempty"`
	ConflictNum int      `json:"conflict_num,omitempty"`
}

type Report struct {
	Class           string         `json:"class"`
	Terminals       []*Terminal    `json:"terminals"`
	NonTerminals    []*NonTerminal `json:"non_terminals"`
	Productions     []*Production  `json:"productions"`
	States          []*State       `json:"states"`
	LookAheads      []*LookAhead   `json:"look_aheads"`
	Diagnostics     []*Diagnostic  `json:"diagnostics"`
	SRConflictCount int            `json:"sr_conflict_count"`
	RRConflictCount int            `json:"rr_conflict_count"`
}
