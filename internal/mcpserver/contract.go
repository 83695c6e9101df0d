package mcpserver

// JointContract describes the member JSON format the tools accept and the
// contract every joint family implements. LLM consumers should read it
// before building detect or evaluate requests.
const JointContract = `# Framewright Joint Contract

All tools that take members expect this JSON shape. Lengths are in
millimetres, angles in degrees.

## Member

` + "```" + `json
{
  "start":  {"x": 0, "y": 0, "z": 0},
  "end":    {"x": 0, "y": 0, "z": 3000},
  "width":  200,
  "height": 200,
  "reference_face": "Bottom",
  "role": "Post",
  "species": "douglas_fir",
  "grade": "no1",
  "start_cut_angle": 90,
  "end_cut_angle": 90
}
` + "```" + `

## Rules

1. **start / end** are the member's datum line endpoints in world
   coordinates. The datum line runs through the section centroid.
2. **width / height** are the finished cross-section dimensions. Both are
   required and must be positive.
3. **reference_face** is one of Top, Bottom, Left, Right. Empty defaults
   to Bottom. It orients depth-referenced cuts (laps, housings, seats).
4. **role** is required. Known roles: Post, Beam, Girt, Plate, Sill,
   TieBeam, SummerBeam, Rafter, Ridge, Purlin, Valley, Brace, FloorJoist.
   Role drives joint-family compatibility.
5. **species / grade** are optional lookup keys for structural capacity
   tables. Omit them when no reference data exists.
6. **start_cut_angle / end_cut_angle** describe the end cuts; 90 means a
   square cut. Brace end cuts are canonicalized, so a brace and its
   mirror image share one signature.

## Intersection classification

detect_intersection returns one of:

- ` + "`" + `endpoint_to_midpoint` + "`" + ` - one member's end lands on the other's span
  (post-to-beam, brace-to-post). Default family: through mortise and tenon.
- ` + "`" + `midpoint_to_midpoint` + "`" + ` - two spans cross (crossing girts).
  Default family: half lap.
- ` + "`" + `endpoint_to_endpoint` + "`" + ` - two ends meet in line (plate splices).
  Default family: bladed scarf.
- ` + "`" + `none` + "`" + ` - the datum lines pass farther apart than the tolerance.

The reported angle is always folded into [0, 90].

## Joint families

Every family implements the same six operations:

1. **parameters** - derive the editable parameter set from the member
   pair and the joint coordinate system. User overrides survive
   re-derivation; only defaults and bounds refresh.
2. **primary tool** - the cutting solid removed from the primary member
   (mortise, slot, housing).
3. **secondary profile** - the shaped end of the secondary member
   (tenon, tail, blade) plus its shoulder cuts.
4. **pegs** - peg axes, diameters and drawbore offsets. Peg axes are
   perpendicular to both the primary axis and the approach direction.
5. **validate** - findings with severity ` + "`" + `error` + "`" + ` (not fabricable) or
   ` + "`" + `warning` + "`" + ` (fabricable but questionable).
6. **signature fragment** - the fabrication-relevant parameters that
   feed the member signature.

A geometry failure in any operation never aborts evaluation: the result
carries a GEOMETRY_CONSTRUCTION_FAILED finding and a placeholder solid.

## Signature joints (member_signature)

` + "```" + `json
[
  {
    "type_id": "through_mortise_tenon",
    "position_fraction": 0.5,
    "face": "Left",
    "fragment": {"tenon_width": 50, "tenon_length": 200}
  }
]
` + "```" + `

- **position_fraction** is the joint position along the member as a
  fraction of its finished length (0 at start, 1 at end).
- **fragment** is the family's signature fragment. Lengths are quantized
  to 1/16 inch and angles to 0.1 degree before hashing, so shop-floor
  equivalent members hash identically.
`
